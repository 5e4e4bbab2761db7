// Command authcli drives the MediConnect patient auth core from a
// terminal: the same flows the mobile shell runs, minus the UI.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/rkarugu/mediconnectpatient-sub001/domain"
	"github.com/rkarugu/mediconnectpatient-sub001/internal/app"
	"github.com/rkarugu/mediconnectpatient-sub001/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("app: %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	in := bufio.NewScanner(os.Stdin)

	if user, _, err := a.RestoreSession(ctx); err == nil {
		fmt.Printf("Signed in as %s\n", user.Name())
	}

	for {
		fmt.Print("\nauth> login | google-phone | phone | register | forgot | reset | whoami | logout | quit\n> ")
		if !in.Scan() {
			return
		}
		switch strings.TrimSpace(in.Text()) {
		case "login":
			runLogin(ctx, a, in)
		case "google-phone":
			runGooglePhone(ctx, a, in)
		case "phone":
			runPhoneFlow(ctx, a, in)
		case "register":
			runRegister(ctx, a, in)
		case "forgot":
			email := prompt(in, "Email: ")
			report(a.AuthSvc.ForgotPassword(ctx, email))
		case "reset":
			email := prompt(in, "Email: ")
			token := prompt(in, "Reset token: ")
			password := prompt(in, "New password: ")
			report(a.AuthSvc.ResetPassword(ctx, email, password, token))
		case "whoami":
			user, err := a.AuthSvc.CurrentUser(ctx)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Printf("%s <%s>\n", user.Name(), user.Email)
		case "logout":
			if err := a.AuthSvc.Logout(ctx); err != nil {
				fmt.Printf("error: %v\n", err)
			} else {
				fmt.Println("Signed out.")
			}
		case "quit", "exit":
			return
		}
	}
}

func runLogin(ctx context.Context, a *app.App, in *bufio.Scanner) {
	identifier := prompt(in, "Email or phone: ")
	password := prompt(in, "Password: ")
	report(a.AuthSvc.Login(ctx, domain.PasswordCredential{
		Identifier: identifier,
		Password:   password,
	}))
}

// runGooglePhone exercises the second half of the Google flow: the CLI
// cannot open a browser for the OAuth dance, but a pending signup that
// needs a phone number can be completed here.
func runGooglePhone(ctx context.Context, a *app.App, in *bufio.Scanner) {
	if !a.Google.Enabled() {
		fmt.Println("Google sign-in is not configured.")
		return
	}
	pending := &domain.PendingGoogleSignup{
		Email:    prompt(in, "Google email: "),
		Name:     prompt(in, "Name: "),
		GoogleID: prompt(in, "Google ID: "),
	}
	phone := prompt(in, "Phone: ")
	report(a.AuthSvc.CompleteGooglePhone(ctx, pending, phone))
}

func runPhoneFlow(ctx context.Context, a *app.App, in *bufio.Scanner) {
	flow := a.NewPhoneFlow(nil)
	defer flow.Close()

	phone := prompt(in, "Phone: ")
	if err := flow.SubmitPhone(ctx, phone); err != nil {
		fmt.Printf("error: %v\n", err)
		return
	}
	fmt.Printf("Code sent. Resend available in %ds.\n", flow.RemainingSeconds())

	for {
		code := prompt(in, "Code (or 'resend', 'back'): ")
		switch code {
		case "resend":
			if err := flow.Resend(ctx); err != nil {
				fmt.Printf("error: %v\n", err)
			} else {
				fmt.Println("Code resent.")
			}
			continue
		case "back":
			flow.Back()
			return
		}

		for i := 0; i < len(code); i++ {
			flow.EnterDigit(code[i])
		}
		resp, err := flow.VerifyAndLogin(ctx)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		report(resp, nil)
		return
	}
}

func runRegister(ctx context.Context, a *app.App, in *bufio.Scanner) {
	form := &domain.RegistrationForm{
		FirstName:            prompt(in, "First name: "),
		LastName:             prompt(in, "Last name: "),
		Email:                prompt(in, "Email: "),
		Phone:                prompt(in, "Phone: "),
		Password:             prompt(in, "Password: "),
		PasswordConfirmation: prompt(in, "Confirm password: "),
	}
	report(a.AuthSvc.Register(ctx, form))
}

func prompt(in *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

func report(resp *domain.AuthResponse, err error) {
	switch {
	case err != nil:
		fmt.Printf("error: %v\n", err)
	case resp.Authenticated():
		fmt.Printf("Signed in as %s\n", resp.User.Name())
	case resp.Message != "":
		fmt.Println(resp.Message)
	default:
		fmt.Println("Done.")
	}
}
