package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"vision-nodes/config"
	telegram "vision-nodes/internal/api"
	"vision-nodes/internal/container"
	"vision-nodes/internal/domain/entity"
	"vision-nodes/internal/domain/port"
	"vision-nodes/internal/infrastructure/flow"
	"vision-nodes/internal/infrastructure/storage"
)

func main() {
	envFile := flag.String("env", "", "path to .env file (default: ./.env if present)")
	kind := flag.String("kind", "", "run one adapter over the image files given as arguments and print JSON results")
	threshold := flag.Int("threshold", -1, "threshold override in percent for -kind mode")
	flag.Parse()

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *kind != "" {
		if err := runFiles(ctx, cfg, *kind, *threshold, flag.Args()); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	if err := runBot(ctx, cfg); err != nil {
		log.Fatalf("Bot error: %v", err)
	}
}

func runBot(ctx context.Context, cfg *config.Config) error {
	if cfg.TelegramToken == "" {
		return errors.New("TELEGRAM_TOKEN is required")
	}

	api, err := telegram.Connect(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("connect to telegram: %w", err)
	}

	// Создаём хранилище пользователей
	userRepo := storage.NewMemoryUserRepository()

	// Собираем сервисы и адаптеры; каждому адаптеру свой хост-ответчик
	appContainer, err := container.New(cfg, userRepo, container.DefaultBackend(cfg), func(kind entity.AdapterKind) port.Host {
		return telegram.NewResponder(api, kind)
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := appContainer.Close(); err != nil {
			log.Printf("Close adapters: %v", err)
		}
	}()

	tasks := appContainer.Start(ctx)
	go func() {
		for kind, err := range container.WaitLoaded(ctx, tasks) {
			log.Printf("%s model not loaded: %v", kind, err)
		}
	}()

	handlers := make(map[entity.AdapterKind]telegram.Handler, len(appContainer.Adapters))
	for kind, adapter := range appContainer.Adapters {
		handlers[kind] = adapter
	}
	bot := telegram.NewBot(api, appContainer.UserService, handlers)

	log.Printf("Bot is running with adapters %v...", appContainer.Kinds())
	return bot.Run(ctx)
}

// runFiles прогоняет файлы через один адаптер и печатает выходные сообщения в JSON.
func runFiles(ctx context.Context, cfg *config.Config, kindName string, threshold int, paths []string) error {
	kind, err := entity.ParseKind(kindName)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no image files given")
	}
	cfg.Enabled = []entity.AdapterKind{kind}

	// На каждый файл хост получает до трёх статусов и один результат.
	host := flow.NewChannelHost(kindName, 4*len(paths)+4)
	defer host.Close()

	appContainer, err := container.New(cfg, storage.NewMemoryUserRepository(), container.DefaultBackend(cfg), func(entity.AdapterKind) port.Host {
		return host
	})
	if err != nil {
		return err
	}
	defer appContainer.Close()

	adapter := appContainer.Adapters[kind]
	if err := appContainer.Start(ctx)[kind].Wait(ctx); err != nil {
		return fmt.Errorf("load %s model: %w", kind, err)
	}

	in := make(chan *entity.Message, len(paths))
	for _, p := range paths {
		msg := entity.NewMessage(p)
		msg.Meta = map[string]string{"file": p}
		if threshold >= 0 {
			msg.Threshold = threshold
		}
		in <- msg
	}
	close(in)

	done := make(chan error, 1)
	go func() { done <- flow.Run(ctx, adapter, in) }()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	failed := 0
	for range paths {
		select {
		case out := <-host.Outputs():
			if err := enc.Encode(out); err != nil {
				return err
			}
		case ev := <-host.Errors():
			failed++
			if ev.Msg != nil {
				log.Printf("%s: %v", ev.Msg.Meta["file"], ev.Err)
			} else {
				log.Printf("%s adapter: %v", kind, ev.Err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := <-done; err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(paths))
	}
	return nil
}
