// Command strata-demo bounces a few layered panes around the terminal
// to exercise the compositor and differential renderer. A TOML config
// can adjust the pane count, tick rate, and colors.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lixenwraith/strata/render"
	"github.com/lixenwraith/strata/terminal"
)

type config struct {
	Panes     int    `toml:"panes"`
	TickMs    int    `toml:"tick_ms"`
	Truecolor bool   `toml:"truecolor"`
	Title     string `toml:"title"`
}

func defaultConfig() config {
	return config{
		Panes:     4,
		TickMs:    33,
		Truecolor: true,
		Title:     "strata",
	}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if cfg.Panes < 1 {
		cfg.Panes = 1
	}
	if cfg.TickMs < 10 {
		cfg.TickMs = 10
	}
	return cfg, nil
}

type pane struct {
	plane  *render.Plane
	y, x   float64
	dy, dx float64
}

func main() {
	configPath := flag.String("config", "", "path to TOML config")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config) error {
	var caps terminal.Capability
	if !cfg.Truecolor {
		caps = terminal.ANSI(terminal.ModePalette)
	}

	ctx, err := render.New(render.Options{Caps: caps})
	if err != nil {
		return err
	}
	defer ctx.Close()

	rows, cols := ctx.Size()
	std := ctx.Stdplane()
	std.SetStyle(terminal.Hex(0x8a8a8a), terminal.DefaultColor(), terminal.AttrNone)
	std.PutTextAt(0, 0, cfg.Title+"  q to quit")

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	panes := make([]*pane, 0, cfg.Panes)
	for i := 0; i < cfg.Panes; i++ {
		pl, err := ctx.Stack().Create(render.RootHandle, 1+i%max(rows-6, 1), (i*7)%max(cols-14, 1), 5, 14)
		if err != nil {
			return err
		}
		fg := terminal.RGB(uint8(rng.Intn(156)+100), uint8(rng.Intn(156)+100), uint8(rng.Intn(156)+100))
		bg := terminal.RGB(uint8(rng.Intn(60)), uint8(rng.Intn(60)), uint8(rng.Intn(60)))
		pl.SetBase(terminal.MustCell(" ", fg, bg, terminal.AttrNone))
		pl.SetStyle(fg, bg, terminal.AttrBold)
		pl.PutTextAt(2, 3, fmt.Sprintf("pane %d", i+1))

		y, x := pl.YX()
		panes = append(panes, &pane{
			plane: pl,
			y:     float64(y),
			x:     float64(x),
			dy:    rng.Float64()*0.6 + 0.2,
			dx:    rng.Float64()*1.2 + 0.4,
		})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	quitCh := make(chan struct{})
	go func() {
		// Raw mode delivers bytes unbuffered; any q or ctrl-c quits.
		buf := make([]byte, 16)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			for _, b := range buf[:n] {
				if b == 'q' || b == 3 {
					close(quitCh)
					return
				}
			}
		}
	}()

	ticker := time.NewTicker(time.Duration(cfg.TickMs) * time.Millisecond)
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-sigCh:
			return nil
		case <-quitCh:
			return nil
		case <-ticker.C:
		}

		rows, cols = ctx.Size()
		for _, p := range panes {
			pr, pc := p.plane.Size()
			p.y += p.dy
			p.x += p.dx
			if p.y < 0 || int(p.y)+pr > rows {
				p.dy = -p.dy
				p.y += 2 * p.dy
			}
			if p.x < 0 || int(p.x)+pc > cols {
				p.dx = -p.dx
				p.x += 2 * p.dx
			}
			p.plane.MoveTo(int(p.y), int(p.x))
		}

		// Periodically rotate the stacking order so overlaps churn.
		if frame%60 == 0 && len(panes) > 1 {
			ctx.Stack().MoveTop(panes[frame/60%len(panes)].plane.Handle())
		}
		frame++

		if err := ctx.Render(); err != nil {
			return err
		}
	}
}
