package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/assessly/internal/api"
	"github.com/abhisek/assessly/internal/auth"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		fromStdin, _ := cmd.Flags().GetBool("password-stdin")

		pw, err := password(fromStdin, cmd.InOrStdin())
		if err != nil {
			return err
		}

		u, err := newClient("").Register(cmd.Context(), api.RegisterRequest{Email: email, Password: pw, Name: name})
		if err != nil {
			return describeAPIError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s. Check your email for a verification token, then run:\n", u.Email)
		fmt.Fprintf(cmd.OutOrStdout(), "  assessly verify --email %s --token <token>\n", u.Email)
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify your email address",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		token, _ := cmd.Flags().GetString("token")

		u, err := newClient("").VerifyEmail(cmd.Context(), api.VerifyRequest{Email: email, Token: token})
		if err != nil {
			return describeAPIError(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Verified %s. You can now log in.\n", u.Email)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and remember the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		email, _ := cmd.Flags().GetString("email")
		fromStdin, _ := cmd.Flags().GetBool("password-stdin")

		pw, err := password(fromStdin, cmd.InOrStdin())
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		client := newClient("")
		if err := checkServer(ctx, client); err != nil {
			return err
		}
		session, err := client.Login(ctx, api.LoginRequest{Email: email, Password: pw})
		if err != nil {
			return describeAPIError(err)
		}
		if _, err := auth.ParseIdentity(session.Token); err != nil {
			return fmt.Errorf("server issued an unusable token: %w", err)
		}
		if err := saveSession(ctx, st, email, session); err != nil {
			return fmt.Errorf("save session: %w", err)
		}

		log.Info().Str("email", email).Msg("logged in")
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", session.User.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Credentials().Clear(cmd.Context()); err != nil {
			return fmt.Errorf("clear credentials: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		client, id, err := authedClient(ctx, st)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		u, err := client.Me(ctx)
		if err != nil {
			if api.IsUnauthorized(err) {
				return fmt.Errorf("server rejected the saved session: %w", errNotLoggedIn)
			}
			log.Warn().Err(err).Msg("could not reach API, showing saved identity")
			fmt.Fprintf(out, "%s <%s> (offline)\n", id.DisplayName(), id.Email)
			return nil
		}
		fmt.Fprintf(out, "%s <%s>\n", u.Name, u.Email)
		fmt.Fprintf(out, "  student id: %s\n", u.ID)
		fmt.Fprintf(out, "  role:       %s\n", u.Role)
		if !id.ExpiresAt.IsZero() {
			fmt.Fprintf(out, "  session:    expires %s\n", id.ExpiresAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

// describeAPIError turns common API failures into actionable messages.
func describeAPIError(err error) error {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Code {
	case api.CodeInvalidCredentials:
		return errors.New("email or password is incorrect")
	case api.CodeEmailNotVerified:
		return errors.New("email not verified yet (run `assessly verify`)")
	case api.CodeValidation, api.CodeConflict:
		if len(apiErr.Fields) > 0 {
			return fmt.Errorf("invalid input: %w", apiErr)
		}
	}
	return err
}

func init() {
	registerCmd.Flags().String("email", "", "Email address")
	registerCmd.Flags().String("name", "", "Full name, printed on certificates")
	registerCmd.Flags().Bool("password-stdin", false, "Read the password from stdin")
	_ = registerCmd.MarkFlagRequired("email")
	_ = registerCmd.MarkFlagRequired("name")

	verifyCmd.Flags().String("email", "", "Email address")
	verifyCmd.Flags().String("token", "", "Verification token")
	_ = verifyCmd.MarkFlagRequired("email")
	_ = verifyCmd.MarkFlagRequired("token")

	loginCmd.Flags().String("email", "", "Email address")
	loginCmd.Flags().Bool("password-stdin", false, "Read the password from stdin")
	_ = loginCmd.MarkFlagRequired("email")
}
