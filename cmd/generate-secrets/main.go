package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/jmpboard/jmp-tracker-backend/internal/utils"
)

func main() {
	password := flag.String("password", "", "management password to hash (optional)")
	flag.Parse()

	fmt.Println("===========================================")
	fmt.Println("Secret Generator for JMP Tracker")
	fmt.Println("===========================================")
	fmt.Println()

	accessSecret, refreshSecret, err := utils.GenerateJWTSecrets()
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	fmt.Println("Add these to your .env file or deployment secrets:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", accessSecret)
	fmt.Printf("JWT_REFRESH_SECRET=%s\n", refreshSecret)

	if *password != "" {
		hash, err := utils.HashPassword(*password)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Printf("MANAGEMENT_PASSWORD_HASH=%s\n", hash)
	} else {
		fmt.Println()
		fmt.Println("Run with -password <value> to also produce MANAGEMENT_PASSWORD_HASH")
	}

	fmt.Println()
	fmt.Println("Keep these secrets safe and never commit them to version control!")
	fmt.Println("===========================================")
}
