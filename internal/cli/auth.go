package cli

import (
	"context"
	"fmt"

	"github.com/utafrali/storefront/internal/api"
	"github.com/utafrali/storefront/internal/session"
)

func (c *CLI) login(ctx context.Context, args []string) error {
	fs := c.flagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password; prompted when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		*password = c.prompt("Password", "")
	}

	res, err := c.api.Auth.SignIn(ctx, api.SignInRequest{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	if res.NeedsActivation {
		fmt.Fprintln(c.out, res.Message)
		fmt.Fprintf(c.out, "Activate the account with: storefront activate -email %s -temp <temporary password>\n", res.Email)
		return nil
	}

	if err := c.session.SignIn(ctx, res.User, res.Token); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Signed in as %s (%s)\n", res.User.Email, res.User.Role)
	return nil
}

func (c *CLI) logout(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	if err := c.session.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Signed out")
	return nil
}

func (c *CLI) whoami(_ context.Context, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	switch c.session.State() {
	case session.Authenticated:
		u, _ := c.session.User()
		fmt.Fprintf(c.out, "%s <%s> %s\n", u.FullName(), u.Email, u.Role)
	case session.Expired:
		fmt.Fprintln(c.out, "Session expired, sign in again")
	default:
		fmt.Fprintln(c.out, "Not signed in")
	}
	return nil
}

func (c *CLI) profile(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	u, err := c.api.User.Get(ctx)
	if err != nil {
		return err
	}
	c.renderUser(u)
	return nil
}

func (c *CLI) signup(ctx context.Context, args []string) error {
	fs := c.flagSet("signup")
	var req api.SignUpRequest
	fs.StringVar(&req.Email, "email", "", "account email")
	fs.StringVar(&req.FirstName, "first", "", "first name")
	fs.StringVar(&req.LastName, "last", "", "last name")
	fs.StringVar(&req.Username, "username", "", "username; defaults to the email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	msg, err := c.api.Auth.SignUp(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, msg)
	return nil
}

func (c *CLI) activate(ctx context.Context, args []string) error {
	fs := c.flagSet("activate")
	var req api.ActivateAccountRequest
	fs.StringVar(&req.Email, "email", "", "account email")
	fs.StringVar(&req.TemporaryPassword, "temp", "", "temporary password from the activation mail")
	fs.StringVar(&req.NewPassword, "password", "", "new password; prompted when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	req.NewPassword, req.ConfirmPassword = c.newPassword(req.NewPassword)

	msg, err := c.api.Auth.ActivateAccount(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, msg)
	return nil
}

func (c *CLI) forgotPassword(ctx context.Context, args []string) error {
	fs := c.flagSet("forgot-password")
	var req api.ForgotPasswordRequest
	fs.StringVar(&req.Email, "email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	msg, err := c.api.Auth.ForgotPassword(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, msg)
	return nil
}

func (c *CLI) resetPassword(ctx context.Context, args []string) error {
	fs := c.flagSet("reset-password")
	var req api.ResetPasswordRequest
	fs.StringVar(&req.Token, "token", "", "reset token from the mail")
	fs.StringVar(&req.NewPassword, "password", "", "new password; prompted when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	req.NewPassword, req.ConfirmPassword = c.newPassword(req.NewPassword)

	msg, err := c.api.Auth.ResetPassword(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, msg)
	return nil
}

func (c *CLI) validateResetToken(ctx context.Context, args []string) error {
	fs := c.flagSet("validate-reset-token")
	token := fs.String("token", "", "reset token from the mail")
	if err := fs.Parse(args); err != nil {
		return err
	}

	valid, msg, err := c.api.Auth.ValidateResetToken(ctx, *token)
	if err != nil {
		return err
	}
	if valid {
		fmt.Fprintln(c.out, "Token is valid")
		return nil
	}
	fmt.Fprintf(c.out, "Token is invalid: %s\n", msg)
	return nil
}

func (c *CLI) changePassword(ctx context.Context, args []string) error {
	fs := c.flagSet("change-password")
	var req api.ChangePasswordRequest
	fs.StringVar(&req.CurrentPassword, "current", "", "current password; prompted when empty")
	fs.StringVar(&req.NewPassword, "password", "", "new password; prompted when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if req.CurrentPassword == "" {
		req.CurrentPassword = c.prompt("Current password", "")
	}
	req.NewPassword, req.ConfirmPassword = c.newPassword(req.NewPassword)

	msg, err := c.api.Auth.ChangePassword(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, msg)
	return nil
}

// newPassword returns the password and its confirmation. A password given
// on the command line confirms itself; otherwise both are prompted.
func (c *CLI) newPassword(given string) (string, string) {
	if given != "" {
		return given, given
	}
	pw := c.prompt("New password", "")
	return pw, c.prompt("Confirm password", "")
}
