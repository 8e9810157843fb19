package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	app, err := SetupApp()
	if err != nil {
		log.Fatalf("failed to set up relay: %v", err)
	}

	r := BuildRouter(app)

	go func() {
		if err := app.Run(r); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("server stopped", "err", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = app.Shutdown(ctx)
}
