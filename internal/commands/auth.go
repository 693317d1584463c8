package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"expenser/internal/validate"
)

func newLoginCommand(deps *Deps) *cobra.Command {
	var username string
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				username = prompt(cmd, "Username: ")
			}
			if password == "" {
				password = prompt(cmd, "Password: ")
			}

			_, err := deps.Service.Login(cmd.Context(), validate.LoginForm{
				Username: username,
				Password: password,
			})
			return err
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when omitted)")

	return cmd
}

func newLogoutCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session and cached data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.Service.Logout(cmd.Context())
		},
	}
}

func newWhoamiCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the active session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := deps.Sessions.Current()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s), session expires %s\n",
				sess.Name, sess.Username, sess.ExpireAt.Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func newSignupCommand(deps *Deps) *cobra.Command {
	var name string
	var username string
	var password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				name = prompt(cmd, "Display name: ")
			}
			if username == "" {
				username = prompt(cmd, "Username: ")
			}
			if password == "" {
				password = prompt(cmd, "Password: ")
			}

			return deps.Service.Signup(cmd.Context(), validate.SignupForm{
				Name:     name,
				Username: username,
				Password: password,
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (prompted when omitted)")

	return cmd
}

func newAccountCommand(deps *Deps) *cobra.Command {
	var name string
	var image string

	cmd := &cobra.Command{
		Use:   "account",
		Short: "Update account details",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" && image == "" {
				return fmt.Errorf("nothing to update: pass --name or --image")
			}
			return deps.Service.UpdateAccount(cmd.Context(), name, image)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&image, "image", "", "new avatar image URL")

	return cmd
}

// prompt reads one line from the command's stdin.
func prompt(cmd *cobra.Command, label string) string {
	fmt.Fprint(cmd.OutOrStdout(), label)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
