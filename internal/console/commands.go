package console

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/vk/statgraph/internal/builder"
	"github.com/vk/statgraph/internal/node"
	"github.com/vk/statgraph/internal/producer"
	"github.com/vk/statgraph/internal/registry"
	"github.com/vk/statgraph/internal/tag"
)

type command struct {
	usage   string
	help    string
	minArgs int
	run     func(ctx context.Context, args []string) (string, error)
}

func (c *Console) table() map[string]*command {
	return map[string]*command{
		"set":      {usage: "set <stat> <value>", help: "Set the value of a base stat.", minArgs: 2, run: c.set},
		"get":      {usage: "get <stat>", help: "Show one stat.", minArgs: 1, run: c.get},
		"stats":    {usage: "stats", help: "Show every stat.", run: c.stats},
		"tags":     {usage: "tags", help: "Show active tags.", run: c.tags},
		"tag":      {usage: "tag add|remove <Tag>", help: "Add or remove a tag.", minArgs: 2, run: c.tag},
		"crit":     {usage: "crit", help: "Land a critical strike.", run: c.fact(producer.Crit, "crit")},
		"block":    {usage: "block", help: "Block a hit.", run: c.fact(producer.Block, "block")},
		"kill":     {usage: "kill", help: "Kill an enemy.", run: c.fact(producer.Kill, "kill")},
		"damage":   {usage: "damage <type> <amount>", help: "Take damage of a type.", minArgs: 2, run: c.damage},
		"equip":    {usage: "equip <item>", help: "Equip an item.", minArgs: 1, run: c.equip},
		"unequip":  {usage: "unequip <item>", help: "Unequip an item.", minArgs: 1, run: c.unequip},
		"items":    {usage: "items", help: "List items.", run: c.items},
		"aura":     {usage: "aura <id> [stop]", help: "Start or stop an aura.", minArgs: 1, run: c.aura},
		"auras":    {usage: "auras", help: "List auras.", run: c.auras},
		"tick":     {usage: "tick", help: "Advance time-based state once.", run: c.tick},
		"snapshot": {usage: "snapshot", help: "Print the graph snapshot as JSON.", run: c.snapshot},
		"help":     {usage: "help", help: "Show this help.", run: c.help},
		"quit":     {usage: "quit", help: "Leave the console.", run: c.quit},
	}
}

func formatStat(info registry.NodeInfo) string {
	if info.Label != "" && info.Label != info.ID {
		return fmt.Sprintf("%s (%s) = %.2f", info.ID, info.Label, info.Value)
	}
	return fmt.Sprintf("%s = %.2f", info.ID, info.Value)
}

func (c *Console) set(ctx context.Context, args []string) (string, error) {
	id := args[0]
	v, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return "", fmt.Errorf("invalid value %q", args[1])
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", fmt.Errorf("value %q must be a finite number", args[1])
	}
	return c.do(ctx, func(ch *builder.Character) (string, error) {
		info, ok := ch.Registry.Node(id)
		if !ok {
			return "", fmt.Errorf("unknown stat %q", id)
		}
		if info.Kind != node.Source {
			return "", fmt.Errorf("stat %q is %s and cannot be set", id, info.Kind)
		}
		ch.Registry.SetNodeValue(id, v)
		info, _ = ch.Registry.Node(id)
		return formatStat(info), nil
	})
}

func (c *Console) get(ctx context.Context, args []string) (string, error) {
	return c.do(ctx, func(ch *builder.Character) (string, error) {
		info, ok := ch.Registry.Node(args[0])
		if !ok {
			return "", fmt.Errorf("unknown stat %q", args[0])
		}
		out := formatStat(info)
		for _, m := range ch.Registry.Modifiers(info.ID) {
			state := "off"
			if m.IsContributing() {
				state = "on"
			}
			out += fmt.Sprintf("\n  %-3s %-9s %8.2f  %s", state, m.Kind, m.Value, m.ID)
		}
		return out, nil
	})
}

func (c *Console) stats(ctx context.Context, _ []string) (string, error) {
	return c.do(ctx, func(ch *builder.Character) (string, error) {
		var b strings.Builder
		w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', tabwriter.AlignRight)
		for _, id := range ch.Registry.NodeIDs() {
			info, _ := ch.Registry.Node(id)
			fmt.Fprintf(w, "%s\t%s\t%.2f\t\n", info.Category, info.ID, info.Value)
		}
		if err := w.Flush(); err != nil {
			return "", err
		}
		return strings.TrimRight(b.String(), "\n"), nil
	})
}

func (c *Console) tags(ctx context.Context, _ []string) (string, error) {
	return c.do(ctx, func(ch *builder.Character) (string, error) {
		names := ch.Registry.Tags().Names()
		if len(names) == 0 {
			return "(no tags)", nil
		}
		return strings.Join(names, ", "), nil
	})
}

func (c *Console) tag(ctx context.Context, args []string) (string, error) {
	t, err := tag.Parse(args[1])
	if err != nil {
		return "", err
	}
	op := strings.ToLower(args[0])
	if op != "add" && op != "remove" {
		return "", fmt.Errorf("usage: tag add|remove <Tag>")
	}
	return c.do(ctx, func(ch *builder.Character) (string, error) {
		if op == "add" {
			if !ch.Registry.AddTag(t) {
				return fmt.Sprintf("%s already active", t), nil
			}
			return fmt.Sprintf("+%s", t), nil
		}
		if !ch.Registry.RemoveTag(t) {
			return fmt.Sprintf("%s was not active", t), nil
		}
		return fmt.Sprintf("-%s", t), nil
	})
}

func (c *Console) fact(fn func(producer.Recorder), name string) func(context.Context, []string) (string, error) {
	return func(ctx context.Context, _ []string) (string, error) {
		return c.do(ctx, func(ch *builder.Character) (string, error) {
			fn(ch.Registry)
			return fmt.Sprintf("%s recently (%.1fs)", name, ch.Registry.RemainingTime(name)), nil
		})
	}
}

func (c *Console) damage(ctx context.Context, args []string) (string, error) {
	dt, err := producer.ParseDamageType(args[0])
	if err != nil {
		return "", err
	}
	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return "", fmt.Errorf("invalid amount %q", args[1])
	}
	return c.do(ctx, func(ch *builder.Character) (string, error) {
		if !producer.TakeDamage(ch.Registry, dt, amount) {
			return "", fmt.Errorf("no history tracks %s damage", dt)
		}
		return fmt.Sprintf("took %.2f %s damage", amount, dt), nil
	})
}

func (c *Console) equip(ctx context.Context, args []string) (string, error) {
	return c.do(ctx, func(ch *builder.Character) (string, error) {
		if err := ch.Producers.Equip(args[0]); err != nil {
			return "", err
		}
		return "equipped " + args[0], nil
	})
}

func (c *Console) unequip(ctx context.Context, args []string) (string, error) {
	return c.do(ctx, func(ch *builder.Character) (string, error) {
		if err := ch.Producers.Unequip(args[0]); err != nil {
			return "", err
		}
		return "unequipped " + args[0], nil
	})
}

func (c *Console) items(ctx context.Context, _ []string) (string, error) {
	return c.do(ctx, func(ch *builder.Character) (string, error) {
		ids := ch.Producers.ItemIDs()
		if len(ids) == 0 {
			return "(no items)", nil
		}
		lines := make([]string, 0, len(ids))
		for _, id := range ids {
			it, _ := ch.Producers.Item(id)
			mark := " "
			if ch.Producers.IsEquipped(id) {
				mark = "*"
			}
			line := fmt.Sprintf("%s %s (%s)", mark, it.ID, it.Name)
			if it.Slot != "" {
				line += " [" + it.Slot + "]"
			}
			lines = append(lines, line)
		}
		return strings.Join(lines, "\n"), nil
	})
}

func (c *Console) aura(ctx context.Context, args []string) (string, error) {
	stop := len(args) > 1 && strings.EqualFold(args[1], "stop")
	return c.do(ctx, func(ch *builder.Character) (string, error) {
		if stop {
			if err := ch.Producers.ExpireAura(args[0]); err != nil {
				return "", err
			}
			return "stopped " + args[0], nil
		}
		if err := ch.Producers.StartAura(args[0]); err != nil {
			return "", err
		}
		return "started " + args[0], nil
	})
}

func (c *Console) auras(ctx context.Context, _ []string) (string, error) {
	return c.do(ctx, func(ch *builder.Character) (string, error) {
		ids := ch.Producers.AuraIDs()
		if len(ids) == 0 {
			return "(no auras)", nil
		}
		lines := make([]string, 0, len(ids))
		for _, id := range ids {
			a, _ := ch.Producers.Aura(id)
			left, active := ch.Producers.Remaining(id)
			switch {
			case !active:
				lines = append(lines, fmt.Sprintf("  %s (%s)", a.ID, a.Name))
			case a.IsPermanent():
				lines = append(lines, fmt.Sprintf("* %s (%s) permanent", a.ID, a.Name))
			default:
				lines = append(lines, fmt.Sprintf("* %s (%s) %.1fs left", a.ID, a.Name, left))
			}
		}
		return strings.Join(lines, "\n"), nil
	})
}

func (c *Console) tick(ctx context.Context, _ []string) (string, error) {
	changed, err := c.eng.Tick(ctx)
	if err != nil {
		return "", err
	}
	if changed {
		return "ticked: state changed", nil
	}
	return "ticked: no change", nil
}

func (c *Console) snapshot(ctx context.Context, _ []string) (string, error) {
	snap, err := c.eng.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	data, err := snap.JSON()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *Console) help(context.Context, []string) (string, error) {
	return c.Help(), nil
}

func (c *Console) quit(context.Context, []string) (string, error) {
	return "bye", ErrQuit
}
