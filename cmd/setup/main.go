package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/mail"
	"os"
	"strings"

	"lifelog/backend/internal/database"
	"lifelog/backend/internal/handlers"
	"lifelog/backend/internal/services"
	"lifelog/backend/pkg/config"

	"golang.org/x/term"
)

// readInput reads a line of text from the console.
func readInput(reader *bufio.Reader, prompt string) string {
	fmt.Print(prompt)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// readInputDefault is readInput with a value used when the answer is empty.
func readInputDefault(reader *bufio.Reader, prompt, def string) string {
	if v := readInput(reader, fmt.Sprintf("%s [%s]: ", prompt, def)); v != "" {
		return v
	}
	return def
}

// readPassword reads a password from the console, masking the input.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(bytePassword)), nil
}

func databaseDSN(reader *bufio.Reader) string {
	if config.Cfg.DatabaseURL != "" {
		fmt.Println("Using DATABASE_URL from the environment.")
		return config.Cfg.DatabaseURL
	}
	cfg := config.Cfg
	cfg.DBHost = readInputDefault(reader, "Database host", cfg.DBHost)
	cfg.DBPort = readInputDefault(reader, "Database port", cfg.DBPort)
	cfg.DBUser = readInputDefault(reader, "Database user", cfg.DBUser)
	password, err := readPassword("Database password (leave empty to keep DB_PASSWORD): ")
	if err != nil {
		log.Fatalf("Failed to read database password: %v", err)
	}
	if password != "" {
		cfg.DBPassword = password
	}
	cfg.DBName = readInputDefault(reader, "Database name", cfg.DBName)
	cfg.DBSSLMode = readInputDefault(reader, "Database SSL mode", cfg.DBSSLMode)
	return cfg.DSN()
}

func readAccountPassword() string {
	for {
		password, err := readPassword("Password: ")
		if err != nil {
			log.Fatalf("Failed to read password: %v", err)
		}
		if !handlers.IsStrongPassword(password) {
			fmt.Println("Use 8 to 72 characters with an upper case letter, a lower case letter and a digit.")
			continue
		}
		confirm, err := readPassword("Confirm password: ")
		if err != nil {
			log.Fatalf("Failed to read password confirmation: %v", err)
		}
		if password == confirm {
			return password
		}
		fmt.Println("Passwords do not match. Please try again.")
	}
}

func RunSetup() {
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("--- LifeLog Setup ---")

	fmt.Println("\n--- Database Configuration ---")
	dsn := databaseDSN(reader)

	fmt.Println("Connecting to database...")
	if err := database.ConnectDB(dsn, config.Cfg.Environment); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	fmt.Println("Successfully connected to the database.")

	fmt.Println("\n--- Running Database Migrations ---")
	if err := database.MigrateDB(); err != nil {
		log.Fatalf("Database migration failed: %v", err)
	}
	fmt.Println("Database migrations completed successfully.")

	fmt.Println("\n--- Creating First Account ---")
	var email string
	for {
		email = readInput(reader, "Email: ")
		if _, err := mail.ParseAddress(email); err == nil {
			break
		}
		fmt.Println("Please enter a valid email address.")
	}
	firstName := readInput(reader, "First name: ")
	lastName := readInput(reader, "Last name: ")
	password := readAccountPassword()

	db := database.GetDB()
	authService := services.NewAuthService(
		services.NewUserService(db, nil),
		services.NewSessionService(db, nil, config.Cfg.SessionLifespan),
		config.Cfg.BcryptCost,
	)
	user, _, err := authService.Register(context.Background(), services.RegisterInput{
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
		IPAddress: "127.0.0.1",
		UserAgent: "lifelog-setup",
	})
	if err != nil {
		log.Fatalf("Failed to create account: %v", err)
	}
	fmt.Printf("Account '%s' created successfully.\n", user.Email)

	fmt.Println("\n--- LifeLog Setup Complete! ---")
	fmt.Println("You can now start the API server.")
}

func main() {
	RunSetup()
}
