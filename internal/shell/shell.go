// Package shell provides the interactive command loop for operating the
// facility from a terminal. Each command runs under its own trace span.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"parkease/internal/analytics"
	"parkease/internal/facility"
	"parkease/internal/telemetry"
)

type Shell struct {
	controller *facility.InstrumentedController
	reporter   *analytics.Reporter
	telemetry  *telemetry.Provider
	scanner    *bufio.Scanner
	out        io.Writer
}

func New(controller *facility.InstrumentedController, reporter *analytics.Reporter, provider *telemetry.Provider) *Shell {
	return &Shell{
		controller: controller,
		reporter:   reporter,
		telemetry:  provider,
		scanner:    bufio.NewScanner(os.Stdin),
		out:        os.Stdout,
	}
}

func (s *Shell) Run(ctx context.Context) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")

	for {
		if ctx.Err() != nil {
			break
		}
		if !s.scanner.Scan() {
			break
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))

		s.processCommand(cmdCtx, input)
		cmdSpan.End()
	}

	span.AddEvent("shell_ended")
}

func (s *Shell) processCommand(ctx context.Context, input string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	command := parts[0]
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("command.name", command))

	switch command {
	case "create_spot":
		s.handleSpotCommand(ctx, parts, "create_spot", s.controller.CreateSpot)
	case "delete_spot":
		s.handleSpotCommand(ctx, parts, "delete_spot", s.controller.DeleteSpot)
	case "new_entry":
		s.handleVehicleCommand(ctx, parts, "new_entry", s.controller.NewEntry)
	case "new_exit":
		s.handleVehicleCommand(ctx, parts, "new_exit", s.controller.NewExit)
	case "book":
		s.handleVehicleCommand(ctx, parts, "book", s.controller.NewBooking)
	case "tree":
		fmt.Fprintln(s.out, s.controller.Render())
	case "status":
		s.handleStatus(ctx, parts)
	case "premium_add":
		s.handlePremiumCommand(ctx, parts, "premium_add", s.controller.RegisterPremium)
	case "premium_remove":
		s.handlePremiumCommand(ctx, parts, "premium_remove", s.controller.UnregisterPremium)
	case "premium_list":
		s.handlePremiumList(ctx)
	case "report_usage":
		s.handleUsageReport(ctx)
	case "report_payments":
		s.handlePaymentsReport(ctx)
	case "reload":
		s.handleReload(ctx)
	case "help":
		s.printHelp()
	default:
		fmt.Fprintf(s.out, "Unknown command: %s\n", command)
	}
}

func (s *Shell) handleSpotCommand(ctx context.Context, parts []string, name string,
	op func(context.Context, int, int, int) string) {

	if len(parts) != 4 {
		fmt.Fprintf(s.out, "Usage: %s <floor> <row> <spot>\n", name)
		return
	}

	floor, row, spot, ok := parseCoordinate(parts[1:4])
	if !ok {
		fmt.Fprintln(s.out, "Invalid coordinate: floor, row and spot must be integers")
		return
	}

	fmt.Fprintln(s.out, op(ctx, floor, row, spot))
}

func (s *Shell) handleVehicleCommand(ctx context.Context, parts []string, name string,
	op func(context.Context, int, int, int, string) string) {

	if len(parts) != 5 {
		fmt.Fprintf(s.out, "Usage: %s <floor> <row> <spot> <plate>\n", name)
		return
	}

	floor, row, spot, ok := parseCoordinate(parts[1:4])
	if !ok {
		fmt.Fprintln(s.out, "Invalid coordinate: floor, row and spot must be integers")
		return
	}

	fmt.Fprintln(s.out, op(ctx, floor, row, spot, parts[4]))
}

func (s *Shell) handlePremiumCommand(ctx context.Context, parts []string, name string,
	op func(context.Context, string) string) {

	if len(parts) != 2 {
		fmt.Fprintf(s.out, "Usage: %s <plate>\n", name)
		return
	}

	fmt.Fprintln(s.out, op(ctx, parts[1]))
}

func (s *Shell) handlePremiumList(ctx context.Context) {
	plates, err := s.controller.PremiumPlates(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %s\n", err.Error())
		return
	}
	if len(plates) == 0 {
		fmt.Fprintln(s.out, "No premium subscribers")
		return
	}
	for _, plate := range plates {
		fmt.Fprintln(s.out, plate)
	}
}

func (s *Shell) handleStatus(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		fmt.Fprintln(s.out, "Usage: status <spot_id>")
		return
	}

	spotID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || spotID <= 0 {
		fmt.Fprintln(s.out, "Invalid spot id")
		return
	}

	plate, status, err := s.controller.CheckSpotStatus(ctx, spotID)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %s\n", err.Error())
		return
	}
	if plate == "" {
		fmt.Fprintf(s.out, "Spot %d is %s\n", spotID, status)
		return
	}
	fmt.Fprintf(s.out, "Spot %d is %s by %s\n", spotID, status, plate)
}

func (s *Shell) handleUsageReport(ctx context.Context) {
	lines, err := s.reporter.UsageReport(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %s\n", err.Error())
		return
	}
	if len(lines) == 0 {
		fmt.Fprintln(s.out, "No usage recorded")
		return
	}
	for _, line := range lines {
		fmt.Fprintln(s.out, line)
	}
}

func (s *Shell) handlePaymentsReport(ctx context.Context) {
	payments, err := s.reporter.Payments(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %s\n", err.Error())
		return
	}
	total, err := s.reporter.TotalRevenue(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %s\n", err.Error())
		return
	}
	for _, p := range payments {
		fmt.Fprintf(s.out, "#%d : %s paid %.2f\n", p.UsageID, p.Plate, p.Amount)
	}
	fmt.Fprintf(s.out, "Total revenue: %.2f\n", total)
}

func (s *Shell) handleReload(ctx context.Context) {
	if err := s.controller.Load(ctx); err != nil {
		fmt.Fprintf(s.out, "Error: %s\n", err.Error())
		return
	}
	fmt.Fprintln(s.out, "Facility reloaded")
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `Commands:
  create_spot <floor> <row> <spot>
  delete_spot <floor> <row> <spot>
  new_entry <floor> <row> <spot> <plate>
  new_exit <floor> <row> <spot> <plate>
  book <floor> <row> <spot> <plate>
  tree
  status <spot_id>
  premium_add <plate>
  premium_remove <plate>
  premium_list
  report_usage
  report_payments
  reload
  exit`)
}

func parseCoordinate(parts []string) (floor, row, spot int, ok bool) {
	var err error
	if floor, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, false
	}
	if row, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, false
	}
	if spot, err = strconv.Atoi(parts[2]); err != nil {
		return 0, 0, 0, false
	}
	return floor, row, spot, true
}
