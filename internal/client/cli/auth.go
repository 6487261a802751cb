package cli

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dmitrijs2005/weekplanner/internal/common"
)

type RegisterCmd struct {
	Email string `short:"e" help:"Account email. Prompted for when omitted."`
	Name  string `short:"n" help:"Display name. Prompted for when omitted."`
}

func (c *RegisterCmd) Run(app *App, ctx context.Context) error {
	email, err := app.textOr(c.Email, "Email")
	if err != nil {
		return err
	}
	name, err := app.textOr(c.Name, "Name")
	if err != nil {
		return err
	}
	pw, err := app.newPassword("Password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	sess, err := app.Identity.Register(ctx, email, string(pw), name)
	if err != nil {
		return err
	}
	app.printf("Registered %s (%s)\n", sess.User.Email, sess.Mode)
	return nil
}

type LoginCmd struct {
	Email string `short:"e" help:"Account email. Prompted for when omitted."`
}

func (c *LoginCmd) Run(app *App, ctx context.Context) error {
	email, err := app.textOr(c.Email, "Email")
	if err != nil {
		return err
	}
	pw, err := GetPassword("Password", app.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	sess, err := app.Identity.Login(ctx, email, string(pw))
	if err != nil {
		return err
	}
	app.printf("Signed in as %s (%s)\n", displayName(sess.User.Name, sess.User.Email), sess.Mode)
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(app *App, ctx context.Context) error {
	if err := app.Identity.Logout(ctx); err != nil {
		return err
	}
	app.model = nil
	app.println("Signed out")
	return nil
}

type WhoamiCmd struct{}

func (c *WhoamiCmd) Run(app *App) error {
	sess, ok := app.Identity.Session()
	if !ok {
		app.printf("Not signed in (%s)\n", app.Identity.Mode())
		return nil
	}
	app.printf("%s <%s>\n", displayName(sess.User.Name, sess.User.Email), sess.User.Email)
	app.printf("  id:    %s\n", sess.User.ID)
	app.printf("  mode:  %s\n", sess.Mode)
	if sess.ExpiresAt != nil {
		app.printf("  until: %s\n", sess.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

type ProfileCmd struct {
	Name string `arg:"" help:"New display name."`
}

func (c *ProfileCmd) Run(app *App, ctx context.Context) error {
	u, err := app.Identity.UpdateProfile(ctx, c.Name)
	if err != nil {
		return err
	}
	app.printf("Name set to %q\n", u.Name)
	return nil
}

type PasswdCmd struct{}

func (c *PasswdCmd) Run(app *App, ctx context.Context) error {
	if _, err := app.session(); err != nil {
		return err
	}
	cur, err := GetPassword("Current password", app.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(cur)

	next, err := app.newPassword("New password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(next)

	if err := app.Identity.ChangePassword(ctx, string(cur), string(next)); err != nil {
		return err
	}
	app.println("Password changed")
	return nil
}

// textOr returns v, or prompts for it when v is empty.
func (a *App) textOr(v, prompt string) (string, error) {
	if v != "" {
		return v, nil
	}
	return GetSimpleText(a.in, prompt, a.out)
}

// newPassword asks for a password twice.
func (a *App) newPassword(prompt string) ([]byte, error) {
	pw, err := GetPassword(prompt, a.out)
	if err != nil {
		return nil, err
	}
	again, err := GetPassword("Repeat "+lowerFirst(prompt), a.out)
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}
	defer common.WipeByteArray(again)

	if !bytes.Equal(pw, again) {
		common.WipeByteArray(pw)
		return nil, fmt.Errorf("%w: passwords do not match", common.ErrorValidation)
	}
	return pw, nil
}

func displayName(name, email string) string {
	if name != "" {
		return name
	}
	return email
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}
