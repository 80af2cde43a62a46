// nanokv-shell is a readline REPL for driving a freelist and a key list
// by hand, useful for poking at the data model without writing a Go
// program.
//
// Commands:
//
//	.help                 show this help message
//	ALLOC n               allocate n pages from the freelist
//	FREE offset count     return count pages at offset to the freelist
//	HAS offset            report whether offset starts a free extent
//	TRUNCATE size         report the lower truncation bound for size
//	INSERT key            insert key into the key list
//	ERASE key             erase key from the key list
//	FIND key              report whether key is present and its slot
//	SCAN                  print every key in the key list, in order
//	.exit                 quit
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/nanokv/nanokv/freelist"
	"github.com/nanokv/nanokv/stats"
	"github.com/nanokv/nanokv/zint32"
	"github.com/prometheus/client_golang/prometheus"
)

const shellPageSize = 4096

// Command completer for readline.
var completer = readline.NewPrefixCompleter(
	readline.PcItem(".help"),
	readline.PcItem(".exit"),
	readline.PcItem("ALLOC"),
	readline.PcItem("FREE"),
	readline.PcItem("HAS"),
	readline.PcItem("TRUNCATE"),
	readline.PcItem("INSERT"),
	readline.PcItem("ERASE"),
	readline.PcItem("FIND"),
	readline.PcItem("SCAN"),
)

const helpText = `
nanokv-shell drives an in-memory freelist and key list by hand.

  ALLOC n               allocate n pages from the freelist
  FREE offset count     return count pages at offset to the freelist
  HAS offset            report whether offset starts a free extent
  TRUNCATE size         report the lower truncation bound for size
  INSERT key            insert key into the key list
  ERASE key             erase key from the key list
  FIND key              report whether key is present and its slot
  SCAN                  print every key in the key list, in order
  .exit                 quit
`

func main() {
	fmt.Println("nanokv-shell")
	fmt.Println("Enter .help for usage hints.")

	registry := prometheus.NewRegistry()
	sink := stats.NewPrometheus(registry)

	fl := freelist.New(shellPageSize, sink)
	keyListData := make([]byte, 4096)
	keys := zint32.New(keyListData, zint32.IdentityCodec{}, nil, sink)

	historyFile := filepath.Join(os.TempDir(), ".nanokv_shell_history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "nanokv> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error initializing readline: %s\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				break
			}
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch strings.ToUpper(fields[0]) {
		case ".HELP":
			fmt.Println(helpText)
		case ".EXIT":
			return
		case "ALLOC":
			runAlloc(fl, fields)
		case "FREE":
			runFree(fl, fields)
		case "HAS":
			runHas(fl, fields)
		case "TRUNCATE":
			runTruncate(fl, fields)
		case "INSERT":
			runInsert(keys, fields)
		case "ERASE":
			runErase(keys, fields)
		case "FIND":
			runFind(keys, fields)
		case "SCAN":
			runScan(keys)
		default:
			fmt.Printf("unknown command: %s (enter .help for usage)\n", fields[0])
		}
	}
}

func runAlloc(fl *freelist.Freelist, fields []string) {
	if len(fields) != 2 {
		fmt.Println("usage: ALLOC n")
		return
	}
	n, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	offset, ok := fl.Alloc(uint32(n))
	if !ok {
		fmt.Println("no extent big enough")
		return
	}
	fmt.Printf("allocated at offset %d\n", offset)
}

func runFree(fl *freelist.Freelist, fields []string) {
	if len(fields) != 3 {
		fmt.Println("usage: FREE offset count")
		return
	}
	offset, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	count, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fl.Put(offset, uint32(count))
	fmt.Println("ok")
}

func runHas(fl *freelist.Freelist, fields []string) {
	if len(fields) != 2 {
		fmt.Println("usage: HAS offset")
		return
	}
	offset, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(fl.Has(offset))
}

func runTruncate(fl *freelist.Freelist, fields []string) {
	if len(fields) != 2 {
		fmt.Println("usage: TRUNCATE size")
		return
	}
	size, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(fl.Truncate(size))
}

func runInsert(keys *zint32.KeyList, fields []string) {
	if len(fields) != 2 {
		fmt.Println("usage: INSERT key")
		return
	}
	key, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	slot, err := keys.Insert(uint32(key))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("inserted at slot %d\n", slot)
}

func runErase(keys *zint32.KeyList, fields []string) {
	if len(fields) != 2 {
		fmt.Println("usage: ERASE key")
		return
	}
	key, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	slot, ok := keys.Find(uint32(key))
	if !ok {
		fmt.Println("not found")
		return
	}
	keys.Erase(countKeys(keys), slot)
	fmt.Println("ok")
}

func runFind(keys *zint32.KeyList, fields []string) {
	if len(fields) != 2 {
		fmt.Println("usage: FIND key")
		return
	}
	key, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	slot, ok := keys.Find(uint32(key))
	fmt.Printf("present=%v slot=%d\n", ok, slot)
}

func runScan(keys *zint32.KeyList) {
	var out []uint32
	keys.Scan(func(ks []uint32) { out = append(out, ks...) }, 0, countKeys(keys))
	fmt.Println(out)
}

func countKeys(keys *zint32.KeyList) int {
	n := 0
	keys.Scan(func(ks []uint32) { n += len(ks) }, 0, keys.BlockCount()*256)
	return n
}
