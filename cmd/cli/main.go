package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/Lrseward22/A3/internal/models"
	"github.com/Lrseward22/A3/internal/store"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	addUserCmd := flag.NewFlagSet("add-user", flag.ExitOnError)
	username := addUserCmd.String("username", "", "Username for the new user")
	name := addUserCmd.String("name", "", "Display name for the new user")
	email := addUserCmd.String("email", "", "Email for the new user")
	address := addUserCmd.String("address", "", "Shipping address for the new user")
	payment := addUserCmd.String("payment", "", "Payment token for the new user")
	password := addUserCmd.String("password", "", "Password for the new user")

	if len(os.Args) < 2 {
		fmt.Println("expected 'add-user' or 'seed' subcommand")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add-user":
		addUserCmd.Parse(os.Args[2:])
		if *username == "" || *password == "" {
			fmt.Println("username and password are required")
			addUserCmd.PrintDefaults()
			os.Exit(1)
		}
		createUser(*username, *name, *email, *address, *payment, *password)
	case "seed":
		seedCatalog()
	default:
		fmt.Println("expected 'add-user' or 'seed' subcommand")
		os.Exit(1)
	}
}

func openStore() *store.Store {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./congo.db"
	}

	db, err := store.NewStore(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	// Ensure tables exist if running cli before server
	if err := db.InitSchema(); err != nil {
		log.Fatalf("Failed to init schema: %v", err)
	}
	return db
}

func createUser(username, name, email, address, payment, password string) {
	db := openStore()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := &models.User{
		Username:     username,
		Name:         name,
		Email:        email,
		Address:      address,
		PaymentToken: payment,
		PasswordHash: string(hashedPassword),
	}
	if err := db.CreateUser(user); err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("User '%s' created successfully.\n", username)
}

func seedCatalog() {
	db := openStore()
	if err := db.SeedCatalog(); err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}
	fmt.Println("Catalog seeded.")
}
