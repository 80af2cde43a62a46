// nanokv-inspect is a terminal viewer over a key list's decoded contents.
//
// Usage:
//
//	nanokv-inspect <filename>             # interactive mode
//	nanokv-inspect -l <filename>          # list mode (print all)
//	nanokv-inspect -l -n 20 <filename>    # list first 20 keys
//
// filename is a raw byte dump of a zint32 key list range, such as one
// written by leaf.Leaf.Bytes() or read back from a page. -codec selects
// the codec the range was written with.
//
// Interactive mode:
//
//	j/↓    scroll down
//	k/↑    scroll up
//	g      jump to first
//	G      jump to last
//	/      jump to key (decimal)
//	q/Esc  quit
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nanokv/nanokv/stats"
	"github.com/nanokv/nanokv/zint32"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/term"
)

func main() {
	listFlag := flag.Bool("l", false, "list mode (non-interactive)")
	countFlag := flag.Int("n", 0, "number of keys (0 = all)")
	codecFlag := flag.String("codec", "identity", "codec the range was written with: identity|delta")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: nanokv-inspect [-l] [-n count] [-codec identity|delta] <filename>")
		os.Exit(1)
	}

	codec, err := resolveCodec(*codecFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	sink := stats.NewPrometheus(registry)
	keys := zint32.Open(data, codec, nil, sink)

	var decoded []uint32
	keys.Scan(func(ks []uint32) { decoded = append(decoded, ks...) }, 0, keys.BlockCount()*256)
	keys.FillMetrics()

	if *listFlag {
		runList(decoded, *countFlag)
		printMetricsSummary(registry)
		return
	}

	runInteractive(decoded)
	printMetricsSummary(registry)
}

func resolveCodec(name string) (zint32.Codec, error) {
	switch name {
	case "identity":
		return zint32.IdentityCodec{}, nil
	case "delta":
		return zint32.DeltaVarintCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

func runList(keys []uint32, count int) {
	n := len(keys)
	if count > 0 && count < n {
		n = count
	}
	for i := 0; i < n; i++ {
		fmt.Println(keys[i])
	}
}

func printMetricsSummary(registry *prometheus.Registry) {
	families, err := registry.Gather()
	if err != nil {
		return
	}
	for _, family := range families {
		for _, m := range family.GetMetric() {
			var metric string
			for _, label := range m.GetLabel() {
				if label.GetName() == "metric" {
					metric = label.GetValue()
				}
			}
			fmt.Fprintf(os.Stderr, "%s: count=%d sum=%g\n", metric, m.GetSummary().GetSampleCount(), m.GetSummary().GetSampleSum())
		}
	}
}

type viewer struct {
	keys   []uint32
	top    int
	width  int
	height int
	status string
}

func runInteractive(keys []uint32) {
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	v := &viewer{keys: keys}
	v.updateSize()

	fmt.Print("\033[?25l\033[2J")
	defer fmt.Print("\033[?25h\033[2J\033[H")

	reader := bufio.NewReader(os.Stdin)

	for {
		v.updateSize()
		v.render()

		b, err := reader.ReadByte()
		if err != nil {
			break
		}
		v.status = ""

		switch b {
		case 'q', 3, 27:
			if b == 27 && reader.Buffered() > 0 {
				b2, _ := reader.ReadByte()
				if b2 == '[' {
					b3, _ := reader.ReadByte()
					switch b3 {
					case 'A':
						v.up()
					case 'B':
						v.down()
					}
				}
				continue
			}
			return
		case 'j':
			v.down()
		case 'k':
			v.up()
		case 'g':
			v.top = 0
		case 'G':
			v.top = v.lastTop()
		case '/':
			v.search(reader)
		}
	}
}

func (v *viewer) updateSize() {
	w, h, err := term.GetSize(int(os.Stdin.Fd()))
	if err != nil {
		w, h = 80, 24
	}
	v.width, v.height = w, h
}

func (v *viewer) lines() int {
	n := v.height - 4
	if n < 1 {
		n = 1
	}
	return n
}

func (v *viewer) lastTop() int {
	top := len(v.keys) - v.lines()
	if top < 0 {
		top = 0
	}
	return top
}

func (v *viewer) down() {
	if v.top < v.lastTop() {
		v.top++
	}
}

func (v *viewer) up() {
	if v.top > 0 {
		v.top--
	}
}

func (v *viewer) search(reader *bufio.Reader) {
	fmt.Print("\033[?25h")
	fmt.Printf("\033[%d;1H\033[K/", v.height)

	var input []byte
	for {
		b, err := reader.ReadByte()
		if err != nil {
			break
		}
		if b == 27 || b == 3 {
			fmt.Print("\033[?25l")
			return
		}
		if b == 13 || b == 10 {
			break
		}
		if b == 127 || b == 8 {
			if len(input) > 0 {
				input = input[:len(input)-1]
				fmt.Print("\b \b")
			}
			continue
		}
		if b >= 32 && b < 127 {
			input = append(input, b)
			fmt.Print(string(b))
		}
	}
	fmt.Print("\033[?25l")

	target, err := strconv.ParseUint(strings.TrimSpace(string(input)), 10, 32)
	if err != nil {
		v.status = "not a number"
		return
	}

	for i, k := range v.keys {
		if uint32(target) <= k {
			v.top = i
			if v.top > v.lastTop() {
				v.top = v.lastTop()
			}
			v.status = fmt.Sprintf("jumped to %d", k)
			return
		}
	}
	v.status = "past the end"
}

func (v *viewer) render() {
	var b strings.Builder
	b.WriteString("\033[H")
	b.WriteString(fmt.Sprintf("[ nanokv-inspect: %d keys ]\033[K\r\n", len(v.keys)))
	b.WriteString(strings.Repeat("─", v.width))
	b.WriteString("\033[K\r\n")

	lines := v.lines()
	for i := 0; i < lines; i++ {
		idx := v.top + i
		if idx < len(v.keys) {
			fmt.Fprintf(&b, "%6d: %d", idx, v.keys[idx])
		} else {
			b.WriteString("~")
		}
		b.WriteString("\033[K\r\n")
	}

	b.WriteString(strings.Repeat("─", v.width))
	b.WriteString("\033[K\r\n")

	if v.status != "" {
		b.WriteString(" " + v.status)
	} else {
		b.WriteString(" j/k:scroll g/G:jump /:search q:quit")
	}
	b.WriteString("\033[K")

	fmt.Print(b.String())
}
