package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"

	"roster/internal/config"
	"roster/internal/database"
	"roster/internal/handler"
	"roster/internal/service"
	"roster/internal/store"
)

func main() {
	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Optional SQL mirror of the roster
	var opts []store.Option
	if cfg.MirrorDriver != "" {
		db, err := database.Open(cfg.MirrorDriver, cfg.MirrorDSN)
		if err != nil {
			log.Fatal("Failed to open mirror database:", err)
		}
		mirror := database.NewMirror(db)
		opts = append(opts, store.WithChangeHook(mirror.OnChange))
		log.Printf("Mirroring roster to %s", cfg.MirrorDriver)
	}

	// Load the roster before accepting any mutation; this also seeds the mirror
	students := store.New(cfg.DataFile, opts...)
	if err := students.LoadAll(); err != nil {
		log.Fatal("Failed to load roster:", err)
	}
	log.Printf("Loaded %d students from %s", students.Len(), cfg.DataFile)

	// Initialize services
	studentService := service.NewStudentService(students)
	uploadService := service.NewUploadService(students)

	// Initialize handlers
	r := handler.NewRouter(
		handler.NewStudentHandler(studentService),
		handler.NewUploadHandler(uploadService, cfg.UploadDir),
		handler.NewProgressHandler(uploadService),
	)

	// Start server
	h := handlers.LoggingHandler(os.Stdout, handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(r))
	log.Printf("Server running on %s", cfg.HTTPAddr)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, h))
}
