package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/mo-amir99/training-portal/internal/features/user"
	"github.com/mo-amir99/training-portal/pkg/config"
	"github.com/mo-amir99/training-portal/pkg/database"
	"github.com/mo-amir99/training-portal/pkg/logger"
	"github.com/mo-amir99/training-portal/pkg/types"
)

func main() {
	fullName := flag.String("name", "", "Full name")
	email := flag.String("email", "", "Email address")
	userType := flag.String("type", string(types.UserTypeAdmin), "User type: admin or student")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewConsole(cfg.LogLevel, os.Stderr)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.Database, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close(db, appLogger)

	reader := bufio.NewReader(os.Stdin)
	prompt := func(label, current string) string {
		if current != "" {
			return current
		}
		fmt.Print(label)
		line, _ := reader.ReadString('\n')
		return strings.TrimSpace(line)
	}

	name := prompt("Full Name: ", *fullName)
	mail := prompt("Email: ", *email)
	password := os.Getenv("ADMIN_PASSWORD")
	password = prompt("Password (min 8 chars): ", password)

	kind := types.UserType(strings.ToLower(*userType))
	if kind != types.UserTypeAdmin && kind != types.UserTypeStudent {
		fmt.Fprintf(os.Stderr, "Error: unknown user type %q\n", *userType)
		os.Exit(1)
	}
	if name == "" || mail == "" {
		fmt.Fprintln(os.Stderr, "Error: full name and email are required")
		os.Exit(1)
	}

	created, err := user.Create(db, user.CreateInput{
		FullName: name,
		Email:    mail,
		Password: password,
		UserType: kind,
	})
	switch {
	case errors.Is(err, user.ErrInvalidPassword):
		fmt.Fprintln(os.Stderr, "Error: password must be at least 8 characters")
		os.Exit(1)
	case errors.Is(err, user.ErrEmailTaken):
		fmt.Fprintln(os.Stderr, "Error: a user with this email already exists")
		os.Exit(1)
	case err != nil:
		appLogger.Error("Failed to create user", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println("User created successfully")
	fmt.Printf("   ID: %s\n", created.ID)
	fmt.Printf("   Email: %s\n", created.Email)
	fmt.Printf("   User Type: %s\n", created.UserType)
}
