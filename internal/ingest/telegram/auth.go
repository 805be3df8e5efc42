package telegram

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"

	apperrors "github.com/lueurxax/telegram-feed-connector/internal/core/errors"
	"github.com/lueurxax/telegram-feed-connector/internal/platform/config"
)

const minPhoneLength = 10

// Login signs the account in interactively and stores the session in TG_SESSION_PATH.
// Values missing from the environment are read from stdin.
func Login(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) error {
	client := telegram.NewClient(cfg.TGAPIID, cfg.TGAPIHash, telegram.Options{
		SessionStorage: &telegram.FileSessionStorage{Path: cfg.TGSessionPath},
	})

	prompt := newTerminalAuth(cfg.TGPhone, cfg.TG2FAPassword, os.Stdin, os.Stdout, logger)

	err := client.Run(ctx, func(ctx context.Context) error {
		if err := client.Auth().IfNecessary(ctx, auth.NewFlow(prompt, auth.SendCodeOptions{})); err != nil {
			return fmt.Errorf("sign in: %w", err)
		}

		self, err := client.Self(ctx)
		if err != nil {
			return fmt.Errorf("get self: %w", err)
		}

		logger.Info().Int64("user_id", self.ID).Str("session", cfg.TGSessionPath).Msg("Successfully authenticated as user")

		return nil
	})
	if err != nil {
		return fmt.Errorf("telegram login: %w", err)
	}

	return nil
}

// terminalAuth answers the sign-in flow from configuration or a terminal.
type terminalAuth struct {
	phone    string
	password string
	in       *bufio.Reader
	out      io.Writer
	logger   *zerolog.Logger
}

var _ auth.UserAuthenticator = (*terminalAuth)(nil)

func newTerminalAuth(phone, password string, in io.Reader, out io.Writer, logger *zerolog.Logger) *terminalAuth {
	return &terminalAuth{
		phone:    phone,
		password: password,
		in:       bufio.NewReader(in),
		out:      out,
		logger:   logger,
	}
}

func (a *terminalAuth) ask(prompt string) (string, error) {
	_, _ = fmt.Fprint(a.out, prompt)

	line, err := a.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}

	return strings.TrimSpace(line), nil
}

func (a *terminalAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	code, err := a.ask("Enter code: ")
	if err != nil {
		return "", fmt.Errorf("failed to read auth code: %w", err)
	}

	return code, nil
}

func (a *terminalAuth) Phone(_ context.Context) (string, error) {
	phone := a.phone
	if phone == "" {
		var err error

		phone, err = a.ask("Enter phone: ")
		if err != nil {
			return "", fmt.Errorf("failed to read phone number: %w", err)
		}
	}

	phone = sanitizePhone(phone)
	a.logger.Info().Str("phone", maskPhone(phone)).Msg("Using phone number")

	if len(phone) < minPhoneLength {
		a.logger.Warn().Int("length", len(phone)).Msg("Phone number seems too short, it might be invalid. Ensure it includes country code (e.g. +1...)")
	}

	return phone, nil
}

func (a *terminalAuth) Password(_ context.Context) (string, error) {
	if a.password != "" {
		return strings.TrimSpace(a.password), nil
	}

	password, err := a.ask("Enter 2FA password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read 2FA password: %w", err)
	}

	return password, nil
}

func (a *terminalAuth) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return nil
}

func (a *terminalAuth) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, apperrors.ErrSignupNotSupported
}

func sanitizePhone(phone string) string {
	var sb strings.Builder

	phone = strings.TrimSpace(phone)

	if strings.HasPrefix(phone, "+") {
		sb.WriteByte('+')

		phone = phone[1:]
	}

	for _, char := range phone {
		if char >= '0' && char <= '9' {
			sb.WriteRune(char)
		}
	}

	return sb.String()
}

func maskPhone(phone string) string {
	if len(phone) < 7 {
		return "****"
	}

	return phone[:3] + "****" + phone[len(phone)-2:]
}
