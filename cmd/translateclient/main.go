package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	grpcapi "speech-translation-service/internal/api/grpc"
)

func main() {
	serverAddr := flag.String("server", "localhost:50051", "gRPC server address")
	userID := flag.String("user", "user-demo", "User ID sent as x-user-id metadata")
	roomID := flag.String("room", "", "Room to share translations with")
	timeout := flag.Duration("timeout", 35*time.Second, "Per-request timeout")
	flag.Parse()

	conn, err := grpc.NewClient(*serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("Connected to %s", *serverAddr)
	client := grpcapi.NewClient(conn, *userID)

	translate := func(text string) {
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()

		resp, err := client.Translate(ctx, text, *roomID)
		if err != nil {
			log.Printf("translate failed: %v", err)
			return
		}
		log.Printf("%q -> %q (cached=%t filtered=%t %dms)",
			text, resp.Text, resp.Cached, resp.Filtered, resp.ProcessingTime)
	}

	if flag.NArg() > 0 {
		translate(strings.Join(flag.Args(), " "))
		return
	}

	// One request per stdin line.
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			translate(line)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("failed to read input: %v", err)
	}
}
