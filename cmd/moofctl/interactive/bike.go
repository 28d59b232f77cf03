// Package interactive provides the interactive command prompt for
// moofctl.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/openmoof/moof-go/pkg/client"
	"github.com/openmoof/moof-go/pkg/command"
)

// Bike handles interactive mode for moofctl.
type Bike struct {
	client *client.Client
	rl     *readline.Instance
}

// New creates the interactive handler around an authenticated client.
func New(c *client.Client) (*Bike, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "moof> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	return &Bike{client: c, rl: rl}, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
// Use it for log output to avoid clobbering the input line.
func (b *Bike) Stdout() io.Writer {
	return b.rl.Stdout()
}

// Run starts the interactive command loop.
func (b *Bike) Run(ctx context.Context, cancel context.CancelFunc) {
	defer b.rl.Close()

	b.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := b.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(b.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			b.printHelp()

		case "unlock":
			b.do(b.client.Unlock())

		case "lock":
			b.do(b.client.Lock())

		case "arm":
			b.do(b.client.ArmAlarm())

		case "disarm":
			b.do(b.client.DisarmAlarm())

		case "alarm":
			b.do(b.client.TriggerAlarm())

		case "bell":
			b.do(b.client.BellSingle())

		case "bell2":
			b.do(b.client.BellDouble())

		case "horn":
			b.do(b.client.Horn())

		case "sound", "beep":
			b.cmdSound(args)

		case "power":
			b.cmdPower(args)

		case "poweron":
			b.do(b.client.PowerOn())

		case "poweroff":
			b.do(b.client.PowerOff())

		case "booston":
			b.do(b.client.BoostOn())

		case "boostoff":
			b.do(b.client.BoostOff())

		case "lights":
			b.cmdLights(args)

		case "status":
			b.cmdStatus()

		case "quit", "exit", "q":
			fmt.Fprintln(b.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(b.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

// do reports the outcome of a fire-and-forget command.
func (b *Bike) do(err error) {
	if err != nil {
		fmt.Fprintf(b.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintln(b.rl.Stdout(), "OK")
}

func (b *Bike) cmdSound(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(b.rl.Stdout(), "Usage: sound <1|2>")
		return
	}
	n, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		fmt.Fprintf(b.rl.Stdout(), "Invalid sound: %s\n", args[0])
		return
	}
	b.do(b.client.PlaySound(int(n)))
}

func (b *Bike) cmdPower(args []string) {
	if len(args) != 1 {
		fmt.Fprintf(b.rl.Stdout(), "Usage: power <0-%d>\n", command.MaxPowerLevel)
		return
	}
	level, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		fmt.Fprintf(b.rl.Stdout(), "Invalid level: %s\n", args[0])
		return
	}
	b.do(b.client.SetPowerLevel(int(level)))
}

func (b *Bike) cmdLights(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(b.rl.Stdout(), "Usage: lights <off|on|auto>")
		return
	}
	mode, err := command.ParseLightMode(args[0])
	if err != nil {
		fmt.Fprintf(b.rl.Stdout(), "Invalid mode: %s\n", args[0])
		return
	}
	b.do(b.client.SetLightMode(mode))
}

func (b *Bike) cmdStatus() {
	fmt.Fprintf(b.rl.Stdout(), "Session phase: %s\n", b.client.Phase())
	fmt.Fprintf(b.rl.Stdout(), "Authenticated: %t\n", b.client.Authenticated())
}

func (b *Bike) printHelp() {
	fmt.Fprintln(b.rl.Stdout(), `
Bike Commands:
  Lock & Alarm:
    unlock / lock        - Unlock or lock the bike
    arm / disarm         - Arm or disarm the alarm
    alarm                - Trigger the alarm

  Sounds:
    bell / bell2         - Ring the bell once or twice
    horn                 - Sound the horn
    sound <1|2>          - Play a built-in sound

  Riding:
    power <0-4>          - Set the assistance level
    poweron / poweroff   - Motor support on or off
    booston / boostoff   - Boost on or off
    lights <off|on|auto> - Set the light mode

  General:
    status               - Show session status
    help                 - Show this help
    quit                 - Exit`)
}
