package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/adityarahman/booking-management/internal/api"
	"github.com/adityarahman/booking-management/internal/guard"
	"github.com/adityarahman/booking-management/internal/session"
)

var (
	loginEmail    string
	loginPassword string

	registerName            string
	registerEmail           string
	registerPassword        string
	registerPasswordConfirm string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the booking API",
	Run: func(cmd *cobra.Command, args []string) {
		s := mustSDK()
		defer s.close()

		resp, err := s.session.Login(context.Background(), session.LoginData{
			Email:    loginEmail,
			Password: loginPassword,
		})
		if err != nil {
			exitWithAPIError("login failed", err)
		}

		fmt.Printf("Signed in as %s <%s>\n", resp.User.Name, resp.User.Email)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Run: func(cmd *cobra.Command, args []string) {
		s := mustSDK()
		defer s.close()

		resp, err := s.session.Register(context.Background(), session.RegisterData{
			Name:                 registerName,
			Email:                registerEmail,
			Password:             registerPassword,
			PasswordConfirmation: registerPasswordConfirm,
		})
		if err != nil {
			exitWithAPIError("registration failed", err)
		}

		fmt.Printf("Registered %s <%s>\n", resp.User.Name, resp.User.Email)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and invalidate the session",
	Run: func(cmd *cobra.Command, args []string) {
		s := mustSDK()
		defer s.close()

		if err := s.session.Logout(context.Background()); err != nil {
			exitWithAPIError("logout failed", err)
		}

		fmt.Println("Signed out.")
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current identity",
	Run: func(cmd *cobra.Command, args []string) {
		s := mustSDK()
		defer s.close()

		// The identity route is protected; let the guard resolve the
		// unchecked session with a single probe before deciding, the way
		// a router guard would before entering a protected view.
		route := guard.Route{Path: "/dashboard", RequiresAuth: true}
		decision := guard.DecideWithProbe(context.Background(), route, s.session, func(ctx context.Context) error {
			_, err := s.session.Me(ctx)
			return err
		})
		if !decision.Allow {
			fmt.Println("Not signed in.")
			os.Exit(1)
		}

		user, _ := s.session.CurrentUser()
		fmt.Printf("%s <%s> (id %d)\n", user.Name, user.Email, user.ID)
	},
}

func mustSDK() *sdk {
	cfg, err := loadConfig(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	s, err := newSDK(cfg)
	if err != nil {
		log.Fatalf("failed to set up client: %v", err)
	}
	return s
}

// exitWithAPIError prints the error and, for validation failures, the
// per-field messages the form layer would display.
func exitWithAPIError(prefix string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", prefix, err)
	for field, msg := range api.FieldErrors(err) {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", field, msg)
	}
	os.Exit(1)
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")
	loginCmd.MarkFlagRequired("email")
	loginCmd.MarkFlagRequired("password")

	registerCmd.Flags().StringVar(&registerName, "name", "", "display name")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "account email")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "account password")
	registerCmd.Flags().StringVar(&registerPasswordConfirm, "password-confirmation", "", "repeat the password")
	registerCmd.MarkFlagRequired("name")
	registerCmd.MarkFlagRequired("email")
	registerCmd.MarkFlagRequired("password")
	registerCmd.MarkFlagRequired("password-confirmation")
}
