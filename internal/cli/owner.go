package cli

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/utafrali/storefront/internal/admin"
	"github.com/utafrali/storefront/internal/api"
	"github.com/utafrali/storefront/internal/domain"
)

func (c *CLI) owner(ctx context.Context, args []string) error {
	if err := c.authorize(c.session.CanManageUsers, "owner"); err != nil {
		return err
	}
	if len(args) == 0 || args[0] != "users" {
		return errUsage
	}
	return c.ownerUsers(ctx, args[1:])
}

func (c *CLI) renderUser(u domain.User) {
	fmt.Fprintf(c.out, "%s <%s>\n", u.FullName(), u.Email)
	fmt.Fprintf(c.out, "Role:    %s\n", u.Role)
	fmt.Fprintf(c.out, "Enabled: %s\n", yesNo(u.Enabled))
	if u.PhoneNumber != "" {
		fmt.Fprintf(c.out, "Phone:   %s\n", u.PhoneNumber)
	}
	if u.AlternateEmail != "" {
		fmt.Fprintf(c.out, "Alt:     %s\n", u.AlternateEmail)
	}
	if a := u.PrimaryAddress(); a.Line1 != "" {
		fmt.Fprintf(c.out, "Address: %s, %s %s, %s\n", a.Line1, a.City, a.PostalCode, a.Country)
	}
	if u.ProfilePictureURL != "" {
		fmt.Fprintf(c.out, "Picture: %s\n", u.ProfilePictureURL)
	}
}

func (c *CLI) ownerUsers(ctx context.Context, args []string) error {
	idFlag := func(name string) (*flag.FlagSet, *int64) {
		fs := c.flagSet(name)
		return fs, fs.Int64("id", 0, "user id")
	}

	return dispatch(ctx, args, map[string]action{
		"list": func(ctx context.Context, args []string) error {
			panel := admin.NewPanel[domain.User]("user", c.api.Owner.Users, nil, c.logger)
			if err := panel.Load(ctx); err != nil {
				return err
			}
			tw := c.table()
			fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tENABLED")
			for _, u := range panel.Items() {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.FullName(), u.Role, yesNo(u.Enabled))
			}
			return tw.Flush()
		},
		"show": func(ctx context.Context, args []string) error {
			fs, id := idFlag("owner users show")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("id", *id); err != nil {
				return err
			}
			u, err := c.api.Owner.Users.Get(ctx, *id)
			if err != nil {
				return err
			}
			c.renderUser(u)
			return nil
		},
		"create": func(ctx context.Context, args []string) error {
			fs := c.flagSet("owner users create")
			var req api.CreateUserRequest
			role := fs.String("role", string(domain.RoleUser), "USER, ADMIN or OWNER")
			fs.StringVar(&req.Email, "email", "", "email")
			fs.StringVar(&req.FirstName, "first", "", "first name")
			fs.StringVar(&req.LastName, "last", "", "last name")
			if err := fs.Parse(args); err != nil {
				return err
			}
			req.Role = domain.Role(*role)

			u, err := c.api.Owner.CreateUser(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Created user %d <%s>; a temporary password was mailed\n", u.ID, u.Email)
			return nil
		},
		"update": func(ctx context.Context, args []string) error {
			fs, id := idFlag("owner users update")
			first := fs.String("first", "", "first name")
			last := fs.String("last", "", "last name")
			phone := fs.String("phone", "", "phone number")
			altEmail := fs.String("alt-email", "", "alternate email")
			city := fs.String("city", "", "primary address city")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("id", *id); err != nil {
				return err
			}
			u, err := c.api.Owner.Users.Get(ctx, *id)
			if err != nil {
				return err
			}
			set := visited(fs)
			if set["first"] {
				u.FirstName = *first
			}
			if set["last"] {
				u.LastName = *last
			}
			if set["phone"] {
				u.PhoneNumber = *phone
			}
			if set["alt-email"] {
				u.AlternateEmail = *altEmail
			}
			if set["city"] {
				u.Address1City = *city
			}
			saved, err := c.api.Owner.UpdateProfile(ctx, u)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Saved user %d\n", saved.ID)
			return nil
		},
		"delete": func(ctx context.Context, args []string) error {
			fs, id := idFlag("owner users delete")
			yes := fs.Bool("yes", false, "skip confirmation")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("id", *id); err != nil {
				return err
			}
			u, err := c.api.Owner.Users.Get(ctx, *id)
			if err != nil {
				return err
			}
			panel := admin.NewPanel[domain.User]("user", c.api.Owner.Users, c.confirmer(*yes), c.logger)
			return c.reportDelete(panel.Delete(ctx, u.ID, u.Email))
		},
		"role": func(ctx context.Context, args []string) error {
			fs, id := idFlag("owner users role")
			role := fs.String("role", "", "USER, ADMIN or OWNER")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("id", *id); err != nil {
				return err
			}
			u, err := c.api.Owner.SetRole(ctx, *id, domain.Role(*role))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "User %d is now %s\n", u.ID, u.Role)
			return nil
		},
		"enable":  c.setEnabled(true),
		"disable": c.setEnabled(false),
		"reset-password": func(ctx context.Context, args []string) error {
			fs, id := idFlag("owner users reset-password")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("id", *id); err != nil {
				return err
			}
			res, err := c.api.Owner.ResetPassword(ctx, *id)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, res.Message)
			if res.TemporaryPassword != "" {
				fmt.Fprintf(c.out, "Temporary password: %s\n", res.TemporaryPassword)
			}
			return nil
		},
		"upload": func(ctx context.Context, args []string) error {
			fs, id := idFlag("owner users upload")
			slot := fs.String("document", string(api.ProfilePicture), "profile-picture, id-document1 or id-document2")
			path := fs.String("file", "", "file to upload")
			if err := fs.Parse(args); err != nil {
				return err
			}
			if err := requireID("id", *id); err != nil {
				return err
			}
			doc, err := api.ParseUserDocument(*slot)
			if err != nil {
				return err
			}
			content, err := os.ReadFile(*path)
			if err != nil {
				return fmt.Errorf("read document: %w", err)
			}
			contentType := mime.TypeByExtension(filepath.Ext(*path))
			if contentType == "" {
				contentType = http.DetectContentType(content)
			}

			res, err := c.api.Owner.UploadDocument(ctx, *id, doc, filepath.Base(*path), contentType, content)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, res["message"])
			return nil
		},
	})
}

func (c *CLI) setEnabled(enabled bool) action {
	return func(ctx context.Context, args []string) error {
		fs := c.flagSet("owner users status")
		id := fs.Int64("id", 0, "user id")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if err := requireID("id", *id); err != nil {
			return err
		}
		u, err := c.api.Owner.SetEnabled(ctx, *id, enabled)
		if err != nil {
			return err
		}
		if u.Enabled {
			fmt.Fprintf(c.out, "User %d enabled\n", u.ID)
		} else {
			fmt.Fprintf(c.out, "User %d disabled\n", u.ID)
		}
		return nil
	}
}
