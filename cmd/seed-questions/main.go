package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nexlearn/exam-engine/internal/config"
	"github.com/nexlearn/exam-engine/internal/database"
	"github.com/nexlearn/exam-engine/internal/logger"
	"github.com/nexlearn/exam-engine/internal/model"
	"github.com/nexlearn/exam-engine/internal/questionfile"
	"github.com/nexlearn/exam-engine/internal/repository"
	"github.com/nexlearn/exam-engine/internal/service"
)

func main() {
	var (
		publish bool
		warm    bool
	)
	flag.BoolVar(&publish, "publish", true, "Publish the set after inserting it")
	flag.BoolVar(&warm, "warm", false, "Load published sets into Redis after seeding")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Println("Usage: seed-questions [flags] <set.yaml>...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	setRepo := repository.NewQuestionSetRepository(pool)

	for _, path := range flag.Args() {
		loaded, err := questionfile.Load(path)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("Failed to load question set")
		}

		stored, questions := model.FromSessionSet(loaded)
		if err := setRepo.CreateWithQuestions(ctx, stored, questions); err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("Failed to insert question set")
		}
		if publish {
			if err := setRepo.Publish(ctx, stored.ID); err != nil {
				log.Fatal().Err(err).Str("set_id", stored.ID.String()).Msg("Failed to publish question set")
			}
		}

		fmt.Printf("Seeded %q as %s with %d questions (published: %t)\n",
			stored.Title, stored.ID, len(questions), publish)
	}

	if !warm {
		return
	}

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	authService := service.NewAuthService(cfg, rdb, service.NewLogOTPSender(log), log)
	questionService := service.NewQuestionService(setRepo, authService, rdb, log)
	if err := questionService.PrewarmAll(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to warm question sets")
	}
	fmt.Println("Question sets cached")
}
