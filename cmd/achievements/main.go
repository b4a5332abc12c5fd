package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/steamfolio/portfolio/internal/client"
	"github.com/steamfolio/portfolio/internal/domain"
	"github.com/steamfolio/portfolio/internal/infra"
)

const usage = `usage: achievements [flags] <command> [args]

commands:
  list                 all achievements with unlock status
  stats                unlock summary and XP
  level                profile level badge
  init                 start a visit session (time and calendar checks)
  unlock <id>          unlock an achievement
  track <kind> <value> record an interaction (section, project, hover, logo, key, click)
  reset                clear all progress
  watch                follow unlock notifications
  events               follow the unlock topic on Kafka

flags:
`

func main() {
	fs := flag.NewFlagSet("achievements", flag.ExitOnError)
	baseURL := fs.String("url", envOr("PORTFOLIO_URL", "http://127.0.0.1:3100"), "base URL of the portfolio service")
	brokers := fs.String("brokers", envOr("KAFKA_BROKERS", "localhost:9092"), "Kafka brokers for the events command")
	topic := fs.String("topic", envOr("KAFKA_TOPIC", "portfolio.achievements"), "Kafka topic for the events command")
	group := fs.String("group", "", "Kafka consumer group; empty reads the topic from the start")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := cli{
		http:    client.NewHTTPClient(*baseURL),
		out:     os.Stdout,
		now:     time.Now,
		brokers: *brokers,
		topic:   *topic,
		group:   *group,
	}
	if err := c.run(ctx, fs.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fs.Usage()
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

type cli struct {
	http    *client.HTTPClient
	out     io.Writer
	now     func() time.Time
	brokers string
	topic   string
	group   string
}

func (c cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}

	switch args[0] {
	case "list":
		list, err := c.http.Achievements(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(c.out, renderAchievements(list, c.now()))

	case "stats":
		stats, err := c.http.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(c.out, renderStats(stats, c.now()))

	case "level":
		report, err := c.http.Level(ctx)
		if err != nil {
			return err
		}
		fmt.Fprint(c.out, renderLevel(report))

	case "init":
		unlocked, err := c.http.Init(ctx)
		if err != nil {
			return err
		}
		c.printUnlocked(unlocked)

	case "unlock":
		if len(args) != 2 {
			return errUsage
		}
		a, err := c.http.Unlock(ctx, args[1])
		if err != nil {
			return err
		}
		if a == nil {
			fmt.Fprintf(c.out, "%s is already unlocked\n", args[1])
			return nil
		}
		fmt.Fprint(c.out, renderAchievements([]domain.Achievement{*a}, c.now()))

	case "track":
		return c.track(ctx, args[1:])

	case "reset":
		if err := c.http.Reset(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "all achievements reset")

	case "watch":
		fmt.Fprintln(c.out, styleMuted.Render("watching "+c.http.WebSocketURL()))
		return client.Watch(ctx, c.http.WebSocketURL(), func(n client.Notification) {
			fmt.Fprintln(c.out, renderNotification(n, c.now()))
		})

	case "events":
		return c.events(ctx)

	default:
		return errUsage
	}
	return nil
}

// track maps "track <kind> <value>" onto the matching request body.
func (c cli) track(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	kind := args[0]

	var body interface{}
	switch kind {
	case "logo":
		body = struct{}{}
	case "section", "project", "hover":
		if len(args) != 2 {
			return errUsage
		}
		body = map[string]string{"id": args[1]}
	case "key":
		if len(args) != 2 {
			return errUsage
		}
		body = map[string]string{"key": args[1]}
	case "click":
		if len(args) != 2 {
			return errUsage
		}
		body = map[string]string{"target": args[1]}
	default:
		return errUsage
	}

	unlocked, err := c.http.Track(ctx, kind, body)
	if err != nil {
		return err
	}
	c.printUnlocked(unlocked)
	return nil
}

func (c cli) printUnlocked(unlocked []domain.Achievement) {
	if len(unlocked) == 0 {
		fmt.Fprintln(c.out, styleMuted.Render("nothing unlocked"))
		return
	}
	fmt.Fprint(c.out, renderAchievements(unlocked, c.now()))
}

func (c cli) events(ctx context.Context) error {
	consumer := infra.NewKafkaConsumer(c.brokers, c.topic, c.group)
	defer consumer.Close()

	fmt.Fprintln(c.out, styleMuted.Render("following "+c.topic+" on "+c.brokers))
	for {
		msg, err := consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}
		var evt domain.Event
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			fmt.Fprintln(c.out, styleMuted.Render("skipping malformed event at offset "+fmt.Sprint(msg.Offset)))
			continue
		}
		fmt.Fprintln(c.out, renderEvent(evt))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
