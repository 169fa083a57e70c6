// shmctl is the interactive harness for shmkit's IPC patterns.
//
// Usage:
//
//	shmctl                                    Launch the interactive menu
//	shmctl storedict send --id I --key K --value V
//	shmctl storedict receive --id I --key K
//	shmctl pubsub publish --id I --key K --value V
//	shmctl pubsub subscribe --id I --key K
//	shmctl dispenser provider --id I --mode fifo|lifo|deque --capacity N --item-size N
//	shmctl dispenser consumer --id I
//	shmctl dispenser reset --id I --mode fifo|lifo|deque --capacity N --item-size N
//	shmctl synccounter --id I --increments N
//
// With no subcommand, shmctl prints a six-item numeric menu (matching
// the original pattern catalogue: StoreDict, PubSub, ReqResp, pipe
// dispenser, shm dispenser, sync-counter demo) and drives a liner-based
// REPL. Exit code is 0 on clean exit; there are no required flags for
// interactive use.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		id         string
		key        string
		value      string
		mode       string
		size       int
		capacity   int
		itemSize   int
		increments int
	)

	flags := flag.NewFlagSet("shmctl", flag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "path to a JSONC config file")
	flags.StringVar(&id, "id", "", "pattern instance id")
	flags.StringVar(&key, "key", "", "StoreDict/PubSub key or topic")
	flags.StringVar(&value, "value", "", "value or payload to send/publish")
	flags.StringVar(&mode, "mode", "fifo", "dispenser mode: fifo, lifo, deque")
	flags.IntVar(&size, "size", 0, "region size in bytes (0 = config default)")
	flags.IntVar(&capacity, "capacity", 0, "dispenser capacity (0 = config default)")
	flags.IntVar(&itemSize, "item-size", 0, "dispenser item size (0 = config default)")
	flags.IntVar(&increments, "increments", 5, "sync-counter demo: number of increments")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if size != 0 {
		cfg.RegionSize = size
	}
	if capacity != 0 {
		cfg.Capacity = capacity
	}
	if itemSize != 0 {
		cfg.ItemSize = itemSize
	}

	args := flags.Args()
	if len(args) > 0 {
		return runNonInteractive(cfg, args, id, key, value, mode, increments)
	}

	return runInteractive(cfg)
}

func runNonInteractive(cfg Config, args []string, id, key, value, mode string, increments int) error {
	pattern, sub := args[0], ""
	if len(args) > 1 {
		sub = args[1]
	}

	switch pattern {
	case "storedict":
		return dispatchStoreDict(cfg, sub, id, key, value)
	case "pubsub":
		return dispatchPubSub(cfg, sub, id, key, value)
	case "dispenser":
		return dispatchDispenser(cfg, sub, id, mode)
	case "synccounter":
		return runSyncCounter(cfg, id, increments)
	case "reqresp":
		fmt.Println(outOfScopeNotice("ReqResp"))
		return nil
	case "pipedispenser":
		fmt.Println(outOfScopeNotice("pipe dispenser"))
		return nil
	default:
		return fmt.Errorf("unknown pattern %q", pattern)
	}
}

func outOfScopeNotice(name string) string {
	return fmt.Sprintf("%s is an out-of-scope OS pipe wrapper; only listed here as a menu entry, per spec §4.6.", name)
}

// historyFile returns the path to the REPL's liner history file,
// following cmd/sloty's ~/.<tool>_history convention.
func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".shmctl_history")
}

func runInteractive(cfg Config) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	if f, err := os.Open(historyFile()); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if path := historyFile(); path != "" {
			if f, err := os.Create(path); err == nil {
				line.WriteHistory(f)
				f.Close()
			}
		}
	}()

	sess := loadSession()
	defer sess.save()

	fmt.Println("shmkit - cross-process IPC toolkit CLI")
	fmt.Println()

	for {
		printMenu()

		choice, err := line.Prompt("shmctl> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nBye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		choice = strings.TrimSpace(choice)
		if choice == "" {
			continue
		}
		line.AppendHistory(choice)

		if choice == "0" || strings.EqualFold(choice, "exit") || strings.EqualFold(choice, "quit") {
			fmt.Println("Bye!")
			return nil
		}

		if err := dispatchMenu(choice, cfg, line, sess); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}

func printMenu() {
	fmt.Println("1) StoreDict send/receive")
	fmt.Println("2) PubSub publish/subscribe")
	fmt.Println("3) ReqResp server/client (out of scope)")
	fmt.Println("4) Pipe dispenser provider/consumer (out of scope)")
	fmt.Println("5) ShmDispenser provider/consumer/reset")
	fmt.Println("6) Shared-memory sync-counter demo")
	fmt.Println("0) Exit")
}

func dispatchMenu(choice string, cfg Config, line *liner.State, sess session) error {
	prompt := func(label string) string {
		v, _ := line.Prompt(label)
		return strings.TrimSpace(v)
	}

	// promptID prompts for an instance id, pre-filling the last one
	// used for this pattern (if any) as a hint, and remembers whatever
	// the user enters for next time.
	promptID := func(pattern string) string {
		last := sess.LastID[pattern]
		label := "id: "
		if last != "" {
			label = fmt.Sprintf("id [%s]: ", last)
		}
		id := prompt(label)
		if id == "" {
			id = last
		}
		sess.remember(pattern, id)
		return id
	}

	switch choice {
	case "1":
		id := promptID("storedict")
		sub := prompt("send/receive: ")
		if sub == "send" {
			return dispatchStoreDict(cfg, "send", id, prompt("key: "), prompt("value: "))
		}
		return dispatchStoreDict(cfg, "receive", id, prompt("key: "), "")

	case "2":
		id := promptID("pubsub")
		sub := prompt("publish/subscribe: ")
		if sub == "publish" {
			return dispatchPubSub(cfg, "publish", id, prompt("topic: "), prompt("payload: "))
		}
		return dispatchPubSub(cfg, "subscribe", id, prompt("topic: "), "")

	case "3":
		fmt.Println(outOfScopeNotice("ReqResp"))
		return nil

	case "4":
		fmt.Println(outOfScopeNotice("pipe dispenser"))
		return nil

	case "5":
		id := promptID("dispenser")
		sub := prompt("provider/consumer/reset: ")
		mode := ""
		if sub == "provider" || sub == "reset" {
			mode = prompt("mode (fifo/lifo/deque): ")
		}
		return dispatchDispenser(cfg, sub, id, mode)

	case "6":
		id := promptID("synccounter")
		return runSyncCounter(cfg, id, 5)

	default:
		fmt.Printf("Unknown choice: %s\n", choice)
		return nil
	}
}
