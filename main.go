package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gonewx/feedcat/internal/session"
	"github.com/gonewx/feedcat/internal/tui"
	"github.com/gonewx/feedcat/pkg/app"
	"github.com/gonewx/feedcat/pkg/bridge"
	"github.com/gonewx/feedcat/pkg/embedded"
	"github.com/gonewx/feedcat/pkg/game"
	"github.com/gonewx/feedcat/pkg/protocol"
	"github.com/gonewx/feedcat/pkg/scenes"
	"github.com/gonewx/feedcat/pkg/sprites"
	"github.com/gonewx/feedcat/pkg/store"
)

var (
	configFile string
	threshold  int
	addr       string
	verbose    bool
	seed       uint64
)

// maxKeystrokesPerRequest 与 request.schema.json 中 n 的上限一致
const maxKeystrokesPerRequest = 10000

func main() {
	embedded.Init(dataFS)

	rootCmd := &cobra.Command{
		Use:           "feedcat",
		Short:         "a desktop cat that eats a fish every N keystrokes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !verbose {
				log.SetOutput(io.Discard)
				log.SetFlags(0)
			}
		},
		RunE: runWindow,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().IntVar(&threshold, "threshold", 0, "keystrokes per fish (saved)")
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "", "bridge address (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "random seed (0 = time based)")

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "run the cat in the terminal",
		RunE:  runTUI,
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "show keystroke and fish counters",
		RunE:  runStats,
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "reset all counters",
		RunE:  runReset,
	}

	spawnCmd := &cobra.Command{
		Use:   "spawn",
		Short: "drop a fish right now",
		RunE:  runSpawn,
	}

	typeCmd := &cobra.Command{
		Use:   "type [n]",
		Short: "send n keystrokes to the running cat",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runType,
	}

	rootCmd.AddCommand(tuiCmd, statsCmd, resetCmd, spawnCmd, typeCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "feedcat:", err)
		os.Exit(1)
	}
}

func sessionOptions() session.Options {
	return session.Options{ConfigPath: configFile, Threshold: threshold, Addr: addr, Seed: seed}
}

// runWindow 桌宠窗口
func runWindow(cmd *cobra.Command, args []string) error {
	s, err := session.Open(sessionOptions())
	if err != nil {
		return err
	}
	defer s.Close()

	sheet, err := sprites.LoadSheet(s.Config.Sprite)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	s.Serve(ctx)

	sceneManager := game.NewSceneManager()
	sceneManager.SetSceneFactory(func(name string) game.Scene {
		if name != "cat" {
			return nil
		}
		return scenes.NewCatScene(s.State, s.Bridge, sheet)
	})
	sceneManager.Load("cat")

	a := app.NewApp(app.Config{Window: s.Config.Window, SceneManager: sceneManager, Settings: s.Settings})
	go func() {
		<-ctx.Done()
		a.RequestStop()
	}()
	return a.Run()
}

// runTUI 终端界面
func runTUI(cmd *cobra.Command, args []string) error {
	if verbose {
		f, err := tea.LogToFile("feedcat.log", "")
		if err != nil {
			return err
		}
		defer f.Close()
	}

	s, err := session.Open(sessionOptions())
	if err != nil {
		return err
	}
	defer s.Close()

	sheet, err := sprites.LoadSheet(s.Config.Sprite)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Serve(ctx)

	return tui.Run(s.State, s.Bridge, sheet)
}

func dial() (*bridge.Client, error) {
	target := addr
	if target == "" {
		cfg, err := session.LoadConfig(configFile)
		if err != nil {
			return nil, err
		}
		target = cfg.Bridge.Addr
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return bridge.Dial(ctx, target)
}

func printCounters(out io.Writer, c store.Counters, source string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "keystrokes\t%d\n", c.TotalKeystrokes)
	fmt.Fprintf(w, "pending\t%d\n", c.KeystrokeCount)
	fmt.Fprintf(w, "fish eaten\t%d\n", c.FishEaten)
	fmt.Fprintf(w, "source\t%s\n", source)
	w.Flush()
}

func countersFromEvent(ev protocol.Event) store.Counters {
	return store.Counters{TotalKeystrokes: ev.TotalKeystrokes, KeystrokeCount: ev.KeystrokeCount, FishEaten: ev.FishEaten}
}

// runStats 优先询问运行中的实例，否则读存档
func runStats(cmd *cobra.Command, args []string) error {
	c, err := dial()
	if err == nil {
		defer c.Close()
		ev, err := c.Stats()
		if err != nil {
			return err
		}
		printCounters(cmd.OutOrStdout(), countersFromEvent(ev), "running instance")
		return nil
	}
	if !errors.Is(err, bridge.ErrNotRunning) {
		return err
	}

	_, counters := session.OpenStorage(sessionOptions())
	printCounters(cmd.OutOrStdout(), counters.LoadOrZero(), "saved")
	return nil
}

// runReset 没有运行实例时直接清零存档
func runReset(cmd *cobra.Command, args []string) error {
	c, err := dial()
	if err == nil {
		defer c.Close()
		if _, err := c.Reset(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "counters reset")
		return nil
	}
	if !errors.Is(err, bridge.ErrNotRunning) {
		return err
	}

	_, counters := session.OpenStorage(sessionOptions())
	if err := counters.Save(store.Counters{}); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "saved counters reset")
	return nil
}

func runSpawn(cmd *cobra.Command, args []string) error {
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()
	if _, err := c.SpawnFish(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "fish dropped")
	return nil
}

func runType(cmd *cobra.Command, args []string) error {
	n := 1
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 {
			return fmt.Errorf("invalid keystroke count %q", args[0])
		}
		n = v
	}

	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()

	spawned := 0
	var last protocol.Event
	for n > 0 {
		chunk := min(n, maxKeystrokesPerRequest)
		ev, err := c.Keystrokes(chunk)
		if err != nil {
			return err
		}
		spawned += ev.Count
		last = ev
		n -= chunk
	}
	fmt.Fprintf(cmd.OutOrStdout(), "total %d keystrokes, %d fish dropped\n", last.TotalKeystrokes, spawned)
	return nil
}
