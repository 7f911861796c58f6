package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"everlasting-kin/internal/client"
	"everlasting-kin/internal/models"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	apiURL  string
	token   string
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "kin",
	Short:         "Everlasting Kin command-line client",
	Long:          `Search deceased records, manage them and review role requests against an Everlasting Kin server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func newClient() *client.Client {
	c := client.New(apiURL, nil)
	c.SetToken(token)
	return c
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func printRecords(out io.Writer, recs []models.DeceasedRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCASE\tNAME\tLOCATION\tSTATUS\tCREATED")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.CaseID, deref(r.Name), deref(r.Location), r.Status, r.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
}

func printRequests(out io.Writer, reqs []models.AdminRequest) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tROLE\tSTATUS\tREQUESTED")
	for _, r := range reqs {
		email, role := "-", "-"
		if r.User != nil {
			email, role = r.User.Email, string(r.User.Role)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, email, role, r.Status, r.RequestedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and print a token",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		ctx, cancel := commandContext()
		defer cancel()

		c := newClient()
		s := client.NewSession(c)
		if err := s.SignIn(ctx, email, password); err != nil {
			return err
		}
		p := s.Profile()
		fmt.Fprintf(cmd.ErrOrStderr(), "Signed in as %s (%s, %s)\n", p.Email, p.Role, p.ApprovalStatus)
		fmt.Fprintln(cmd.OutOrStdout(), c.Token())
		return nil
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and print its token",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := client.SignupForm{}
		f.Email, _ = cmd.Flags().GetString("email")
		f.Password, _ = cmd.Flags().GetString("password")
		f.ConfirmPassword, _ = cmd.Flags().GetString("confirm-password")
		f.FirstName, _ = cmd.Flags().GetString("first-name")
		f.LastName, _ = cmd.Flags().GetString("last-name")
		role, _ := cmd.Flags().GetString("role")
		f.Role = models.UserRole(role)
		if !f.Role.Valid() {
			return fmt.Errorf("unknown role %q", role)
		}

		ctx, cancel := commandContext()
		defer cancel()

		c := newClient()
		s := client.NewSession(c)
		if err := f.Submit(ctx, s); err != nil {
			return err
		}
		if p := s.Profile(); p.ApprovalStatus != models.ApprovalApproved {
			fmt.Fprintln(cmd.ErrOrStderr(), "Account created, waiting for admin approval")
		}
		fmt.Fprintln(cmd.OutOrStdout(), c.Token())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the current token",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		return client.NewSession(newClient()).SignOut(ctx)
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the signed-in profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		s := client.NewSession(newClient())
		if err := s.Restore(ctx); err != nil {
			return err
		}
		if s.Profile() == nil {
			return fmt.Errorf("not signed in, pass --token or set KIN_TOKEN")
		}
		return printJSON(cmd.OutOrStdout(), s.Profile())
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the dashboard for the signed-in role",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		d, err := newClient().Dashboard(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), d)
	},
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Deceased records",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every record, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		r := client.NewRecords(newClient())
		if err := r.Fetch(ctx); err != nil {
			return err
		}
		printRecords(cmd.OutOrStdout(), r.Records())
		return nil
	},
}

var recordsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search records by name, case id or location",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		r := client.NewRecords(newClient())
		if err := r.Search(ctx, args[0]); err != nil {
			return err
		}
		printRecords(cmd.OutOrStdout(), r.Records())
		return nil
	},
}

func optional(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

var recordsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a record",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := client.NewRecord{
			Name:            optional(cmd, "name"),
			DateOfDeath:     optional(cmd, "date-of-death"),
			Location:        optional(cmd, "location"),
			FingerprintHash: optional(cmd, "fingerprint-hash"),
			MortuaryDetails: optional(cmd, "mortuary-details"),
		}
		in.CaseID, _ = cmd.Flags().GetString("case-id")
		in.Status, _ = cmd.Flags().GetString("status")

		ctx, cancel := commandContext()
		defer cancel()

		rec, err := client.NewRecords(newClient()).Create(ctx, in)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rec)
	},
}

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a record (admin only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid record id: %w", err)
		}

		ctx, cancel := commandContext()
		defer cancel()
		return client.NewRecords(newClient()).Delete(ctx, id)
	},
}

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Role requests awaiting admin review",
}

var requestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List role requests, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		q := client.NewRequests(newClient())
		if err := q.Fetch(ctx); err != nil {
			return err
		}
		printRequests(cmd.OutOrStdout(), q.Requests())
		return nil
	},
}

// reviewCommand builds approve and reject; the reviewer is the signed-in
// admin.
func reviewCommand(use, short string, approve bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <request-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid request id: %w", err)
			}

			ctx, cancel := commandContext()
			defer cancel()

			c := newClient()
			s := client.NewSession(c)
			if err := s.Restore(ctx); err != nil {
				return err
			}
			if s.User() == nil {
				return fmt.Errorf("not signed in, pass --token or set KIN_TOKEN")
			}

			q := client.NewRequests(c)
			if approve {
				err = q.Approve(ctx, id, s.User().ID)
			} else {
				err = q.Reject(ctx, id, s.User().ID)
			}
			if err != nil {
				return err
			}
			printRequests(cmd.OutOrStdout(), q.Requests())
			return nil
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func init() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("KIN_API_URL", "http://localhost:8080"), "API base URL (KIN_API_URL)")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("KIN_TOKEN"), "bearer token (KIN_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")

	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	signupCmd.Flags().String("email", "", "account email")
	signupCmd.Flags().String("password", "", "password, at least 6 characters")
	signupCmd.Flags().String("confirm-password", "", "password again")
	signupCmd.Flags().String("first-name", "", "first name")
	signupCmd.Flags().String("last-name", "", "last name")
	signupCmd.Flags().String("role", string(models.RolePublicUser), "public_user, mortuary_staff, police or admin")
	_ = signupCmd.MarkFlagRequired("email")
	_ = signupCmd.MarkFlagRequired("password")
	_ = signupCmd.MarkFlagRequired("confirm-password")

	recordsCreateCmd.Flags().String("case-id", "", "case id, unique")
	recordsCreateCmd.Flags().String("name", "", "name of the deceased")
	recordsCreateCmd.Flags().String("date-of-death", "", "YYYY-MM-DD")
	recordsCreateCmd.Flags().String("location", "", "where the body was found or is held")
	recordsCreateCmd.Flags().String("fingerprint-hash", "", "fingerprint hash")
	recordsCreateCmd.Flags().String("mortuary-details", "", "mortuary details")
	recordsCreateCmd.Flags().String("status", "", "identified, unidentified or pending_identification")
	_ = recordsCreateCmd.MarkFlagRequired("case-id")

	recordsCmd.AddCommand(recordsListCmd, recordsSearchCmd, recordsCreateCmd, recordsDeleteCmd)
	requestsCmd.AddCommand(
		requestsListCmd,
		reviewCommand("approve", "Approve a role request", true),
		reviewCommand("reject", "Reject a role request", false),
	)
	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, meCmd, dashboardCmd, recordsCmd, requestsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
