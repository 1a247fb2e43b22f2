package app

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/hitoshi/kakeibo/internal/config"
	"github.com/hitoshi/kakeibo/internal/credential"
	"github.com/hitoshi/kakeibo/internal/database"
	"github.com/hitoshi/kakeibo/internal/repository"
	"github.com/hitoshi/kakeibo/internal/user"
)

// runAddUser は管理者がコマンドラインからユーザーを登録するためのサブコマンド。
// -passwordを省略した場合は標準入力からパスワードを読み取る。
// 登録処理はHTTPの登録と同じユーザーサービスを通る。
func runAddUser(ctx context.Context, cfg *config.Config, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stdout)

	name := fs.String("name", "", "表示名")
	email := fs.String("email", "", "メールアドレス")
	passwordFlag := fs.String("password", "", "パスワード（省略時はプロンプトで入力）")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*name) == "" || *email == "" {
		fmt.Fprintln(stdout, "Usage: kakeibo adduser -name <name> -email <email> [-password <password>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: name, email")
	}
	if addr, err := mail.ParseAddress(*email); err != nil || addr.Address != *email {
		return fmt.Errorf("invalid email address: %q", *email)
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if violations := credential.ValidatePassword(password); len(violations) > 0 {
		return fmt.Errorf("password does not satisfy the policy: %s", strings.Join(violations, ", "))
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// トークンは発行しないためTokenIssuerは不要
	svc := user.NewService(repository.NewSQLUserRepo(db), nil, nil, nil, nil)
	id, err := svc.Register(ctx, user.RegisterInput{
		Name:     *name,
		Email:    *email,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %s\n", *email, id)
	return nil
}

// readPassword は端末ならエコーなしで、パイプ等なら1行をそのまま読み取る。
func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
