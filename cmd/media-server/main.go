package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chathub/internal/di"
)

func main() {
	log.Println("Starting ChatHub media server...")

	app, err := di.InitializeMediaApp()
	if err != nil {
		log.Fatalf("Failed to initialize media server: %v", err)
	}
	defer app.Mongo.Close(context.Background())

	srv := &http.Server{
		Addr:         app.Config.Server.Host + ":" + app.Config.Server.MediaPort,
		Handler:      app.Server.Router(),
		ReadTimeout:  time.Duration(app.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(app.Config.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Media server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down media server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Media server stopped")
}
