package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/toniosim/pbbg-client/pkg/api"
	"github.com/toniosim/pbbg-client/pkg/auth"
	"github.com/toniosim/pbbg-client/pkg/channel"
	"github.com/toniosim/pbbg-client/pkg/game/types"
	"github.com/toniosim/pbbg-client/pkg/log"
	"github.com/toniosim/pbbg-client/pkg/notify"
	"github.com/toniosim/pbbg-client/pkg/store"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	flag.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "game server API root")
	flag.StringVar(&cfg.SocketURL, "socket", cfg.SocketURL, "push channel endpoint (derived from -server when empty)")
	flag.StringVar(&cfg.Username, "username", cfg.Username, "account username")
	flag.StringVar(&cfg.Password, "password", cfg.Password, "account password")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (error, warn, info, debug)")
	flag.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write logs to this file as well as stdout")
	flag.Parse()

	logLevel, err := log.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse log level: %v\n", err)
		os.Exit(1)
	}
	log.Configure(log.Options{File: cfg.LogFile})
	log.SetLevel(logLevel)

	if err := run(cfg); err != nil {
		log.Error("Client exited with error: %v", err)
		os.Exit(1)
	}
}

func run(cfg *Config) error {
	ctx := context.Background()
	notifier := notify.Log{}

	apiClient, err := api.NewClient(api.NewClientOptions{
		BaseURL: cfg.ServerURL,
		UnauthorizedHook: func() {
			notifier.Warning("Session expired, please log in again")
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create API client: %v", err)
	}

	sessions := auth.NewSessionManager(auth.NewSessionManagerOptions{
		API:      apiClient,
		Notifier: notifier,
	})

	reader := bufio.NewReader(os.Stdin)
	if !login(ctx, sessions, cfg, reader) {
		return fmt.Errorf("login failed: %s", sessions.Err())
	}

	guard := auth.NewGuard(sessions, "/login")
	if decision := guard.Authorize(ctx, "/game"); !decision.Allowed {
		return fmt.Errorf("not authorized to enter the game (redirect: %s)", decision.RedirectTo)
	}

	socketURL, err := cfg.ResolveSocketURL()
	if err != nil {
		return err
	}

	// The push channel presents the same session cookie as the API
	// client, and connects only after authentication succeeded.
	pushChannel := channel.NewClient(channel.NewClientOptions{
		URL:      socketURL,
		Jar:      apiClient.Jar(),
		Notifier: notifier,
	})
	if err := pushChannel.Connect(ctx); err != nil {
		log.Warn("Push channel unavailable, falling back to requests: %v", err)
	}
	defer pushChannel.Disconnect()

	gameStore := store.NewStore(store.NewStoreOptions{
		API:      apiClient,
		Channel:  pushChannel,
		Notifier: notifier,
	})
	defer gameStore.Dispose()

	if err := gameStore.Initialize(ctx); err != nil {
		log.Warn("Initialization incomplete: %v", err)
	}

	printState(gameStore)
	return repl(ctx, reader, gameStore, sessions, pushChannel)
}

// presenceEvents is the push surface the who command waits on.
type presenceEvents interface {
	Subscribe(event string, handler channel.Handler) func()
}

// awaitPlayers requests the presence list and waits for the server's
// players_in_location reply. The store subscribed first, so it has
// applied the presence slice by the time the reply handler fires.
func awaitPlayers(events presenceEvents, gameStore *store.Store, timeout time.Duration) bool {
	reply := make(chan struct{}, 1)
	cancel := events.Subscribe(types.EventPlayersInLocation, func(json.RawMessage) {
		select {
		case reply <- struct{}{}:
		default:
		}
	})
	defer cancel()

	if !gameStore.RequestPlayersInLocation() {
		return false
	}

	select {
	case <-reply:
		return true
	case <-time.After(timeout):
		return false
	}
}

func login(ctx context.Context, sessions *auth.SessionManager, cfg *Config, reader *bufio.Reader) bool {
	if sessions.CheckStatus(ctx) {
		return true
	}

	username := cfg.Username
	password := cfg.Password
	if username == "" {
		fmt.Print("Username: ")
		username, _ = reader.ReadString('\n')
		username = strings.TrimSpace(username)
	}
	if password == "" {
		fmt.Print("Password: ")
		password, _ = reader.ReadString('\n')
		password = strings.TrimSpace(password)
	}

	return sessions.Login(ctx, username, password)
}

func repl(ctx context.Context, reader *bufio.Reader, gameStore *store.Store, sessions *auth.SessionManager, events presenceEvents) error {
	fmt.Println(`Commands: state, actions, act <type>, say <text>, who, logout, quit`)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		command, rest, _ := strings.Cut(strings.TrimSpace(line), " ")

		switch command {
		case "":
		case "state":
			printState(gameStore)
		case "actions":
			for _, action := range gameStore.Actions() {
				fmt.Printf("  %s (%d AP): %s\n", action.Type, action.APCost, action.Description)
			}
		case "act":
			if rest == "" {
				fmt.Println("usage: act <type>")
				continue
			}
			gameStore.PerformAction(ctx, rest, nil)
		case "say":
			if !gameStore.SendChatMessage(rest, types.ChatChannelLocation) {
				fmt.Println("message not sent")
			}
		case "who":
			if !awaitPlayers(events, gameStore, 2*time.Second) {
				fmt.Println("presence request failed or timed out")
			}
			for _, p := range gameStore.Players() {
				fmt.Printf("  %s\n", p.CharacterName)
			}
		case "logout":
			sessions.Logout(ctx)
			return nil
		case "quit", "exit":
			return nil
		default:
			fmt.Printf("unknown command: %s\n", command)
		}
	}
}

func printState(gameStore *store.Store) {
	character := gameStore.Character()
	if character == nil {
		fmt.Println("no character loaded")
		return
	}
	fmt.Printf("%s (level %d) at (%d, %d)\n", character.Name, character.Level, character.X, character.Y)
	fmt.Printf("  HP %d/%d  Stamina %d/%d  AP %d/%d  $%d\n",
		character.Health, character.MaxHealth,
		character.Stamina, character.MaxStamina,
		character.AP, character.MaxAP,
		character.Money)
	if location := gameStore.Location(); location != nil {
		fmt.Printf("  Location: %s\n", location.Name)
	}
	for _, msg := range gameStore.ChatMessages() {
		fmt.Printf("  [%s] %s: %s\n", msg.Channel, msg.CharacterName, msg.Message)
	}
}
