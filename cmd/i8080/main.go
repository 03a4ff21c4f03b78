// Command i8080 runs, disassembles and inspects Intel 8080 binaries.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gocpu/i8080/cpu"
	"github.com/gocpu/i8080/disassemble"
	"github.com/gocpu/i8080/loader"
	"github.com/gocpu/i8080/memory"
)

// fixedPortBus implements io.Bus with preset IN values supplied at the
// CLI edge via --port, and records the last byte OUT wrote to each
// port so a finished run can report it.
type fixedPortBus struct {
	inputs  map[uint8]uint8
	outputs map[uint8]uint8
}

func newFixedPortBus(specs []string) (*fixedPortBus, error) {
	bus := &fixedPortBus{inputs: map[uint8]uint8{}, outputs: map[uint8]uint8{}}
	for _, spec := range specs {
		port, val, err := parsePortSpec(spec)
		if err != nil {
			return nil, err
		}
		bus.inputs[port] = val
	}
	return bus, nil
}

func parsePortSpec(spec string) (port, val uint8, err error) {
	name, value, ok := strings.Cut(spec, "=")
	if !ok {
		return 0, 0, fmt.Errorf("--port %q: want N=value", spec)
	}
	p, err := strconv.ParseUint(name, 0, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("--port %q: bad port number: %w", spec, err)
	}
	v, err := strconv.ParseUint(value, 0, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("--port %q: bad value: %w", spec, err)
	}
	return uint8(p), uint8(v), nil
}

func (b *fixedPortBus) Input(port uint8) uint8 { return b.inputs[port] }

func (b *fixedPortBus) Output(port uint8, val uint8) { b.outputs[port] = val }

func main() {
	rootCmd := &cobra.Command{
		Use:   "i8080",
		Short: "Intel 8080 cycle-counted functional emulator",
	}

	var loadAddr uint16
	var startPC uint16
	var maxInstructions int
	var strict bool
	var ports []string

	runCmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Load a raw binary image and run it to completion or HLT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mem := memory.NewFlat()
			if _, err := loader.Load(mem, loadAddr, args[0]); err != nil {
				return err
			}
			c := cpu.NewWithMemory(startPC, mem)
			c.Strict = strict
			var bus *fixedPortBus
			if len(ports) > 0 {
				var err error
				bus, err = newFixedPortBus(ports)
				if err != nil {
					return err
				}
				c.Bus = bus
			}

			total := 0
			for i := 0; i < maxInstructions; i++ {
				_, states, err := c.Step()
				if err != nil {
					return fmt.Errorf("stopped at PC=0x%04X after %d instructions: %w", c.PC, i, err)
				}
				total += states
				if c.Halted() {
					fmt.Printf("halted at PC=0x%04X after %d instructions, %d states\n", c.PC, i+1, total)
					if bus != nil && len(bus.outputs) > 0 {
						fmt.Println("port output:")
						for port, val := range bus.outputs {
							fmt.Printf("  port 0x%02X = 0x%02X\n", port, val)
						}
					}
					return nil
				}
			}
			return fmt.Errorf("instruction budget (%d) exhausted without halting, stuck at PC=0x%04X", maxInstructions, c.PC)
		},
	}
	runCmd.Flags().Uint16Var(&loadAddr, "load-addr", 0x0000, "address to load the image at")
	runCmd.Flags().Uint16Var(&startPC, "start-pc", 0x0000, "initial PC")
	runCmd.Flags().IntVar(&maxInstructions, "max-instructions", 10_000_000, "instruction budget before giving up")
	runCmd.Flags().BoolVar(&strict, "strict", false, "reject undocumented opcode bytes instead of aliasing them")
	runCmd.Flags().StringArrayVar(&ports, "port", nil, "preset IN value for a port, as N=value (repeatable, e.g. --port 0x10=0xFF)")

	var disasmStart uint16
	var disasmCount int
	disasmCmd := &cobra.Command{
		Use:   "disasm <file>",
		Short: "Disassemble a raw binary image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mem := memory.NewFlat()
			next, err := loader.Load(mem, loadAddr, args[0])
			if err != nil {
				return err
			}
			pc := disasmStart
			if pc == 0 {
				pc = loadAddr
			}
			for i := 0; i < disasmCount && pc < next; i++ {
				line, n := disassemble.Step(pc, mem)
				fmt.Println(line)
				pc += uint16(n)
			}
			return nil
		},
	}
	disasmCmd.Flags().Uint16Var(&loadAddr, "load-addr", 0x0000, "address to load the image at")
	disasmCmd.Flags().Uint16Var(&disasmStart, "start", 0, "address to start disassembling from (defaults to load-addr)")
	disasmCmd.Flags().IntVar(&disasmCount, "count", 1<<20, "maximum instructions to print")

	rootCmd.AddCommand(runCmd, disasmCmd, monitorCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
