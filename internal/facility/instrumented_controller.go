package facility

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"parkease/internal/telemetry"
)

// InstrumentedController wraps a Controller with traces and metrics around
// every facility operation.
type InstrumentedController struct {
	*Controller
	telemetry *telemetry.Provider

	entryOperations   metric.Int64Counter
	exitOperations    metric.Int64Counter
	bookingOperations metric.Int64Counter
	spotOperations    metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
	collectedFees     metric.Float64Histogram
}

func NewInstrumentedController(base *Controller, provider *telemetry.Provider) (*InstrumentedController, error) {
	meter := provider.Meter()

	entryOperations, err := meter.Int64Counter("facility_entry_operations_total",
		metric.WithDescription("Total number of entry operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	exitOperations, err := meter.Int64Counter("facility_exit_operations_total",
		metric.WithDescription("Total number of exit operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	bookingOperations, err := meter.Int64Counter("facility_booking_operations_total",
		metric.WithDescription("Total number of booking operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	spotOperations, err := meter.Int64Counter("facility_spot_operations_total",
		metric.WithDescription("Total number of spot create/delete operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("facility_occupancy",
		metric.WithDescription("Current number of occupied spots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("facility_operation_duration_seconds",
		metric.WithDescription("Duration of facility controller operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	collectedFees, err := meter.Float64Histogram("facility_collected_fees",
		metric.WithDescription("Fees collected on exit"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	ic := &InstrumentedController{
		Controller:        base,
		telemetry:         provider,
		entryOperations:   entryOperations,
		exitOperations:    exitOperations,
		bookingOperations: bookingOperations,
		spotOperations:    spotOperations,
		occupancyGauge:    occupancyGauge,
		operationDuration: operationDuration,
		collectedFees:     collectedFees,
	}
	base.onPayment = func(ctx context.Context, amount float64) {
		ic.collectedFees.Record(ctx, amount)
	}
	return ic, nil
}

func (ic *InstrumentedController) Load(ctx context.Context) error {
	ctx, span := ic.telemetry.Tracer().Start(ctx, "facility.load")
	defer span.End()

	start := time.Now()
	err := ic.Controller.Load(ctx)
	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{attribute.String("operation", "load")}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		labels = append(labels, attribute.String("status", "success"))
	}
	ic.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return err
}

func (ic *InstrumentedController) NewEntry(ctx context.Context, floor, row, spotNumber int, plate string) string {
	ctx, span := ic.telemetry.Tracer().Start(ctx, "facility.new_entry",
		trace.WithAttributes(
			attribute.Int("spot.floor", floor),
			attribute.Int("spot.row", row),
			attribute.Int("spot.number", spotNumber),
			attribute.String("vehicle.plate", plate),
		))
	defer span.End()

	start := time.Now()
	message := ic.Controller.NewEntry(ctx, floor, row, spotNumber, plate)
	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{attribute.String("operation", "new_entry")}
	if IsError(message) {
		span.SetStatus(codes.Error, message)
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		span.AddEvent("car_parked")
		labels = append(labels, attribute.String("status", "success"))
		ic.occupancyGauge.Add(ctx, 1)
	}
	ic.entryOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ic.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return message
}

func (ic *InstrumentedController) NewExit(ctx context.Context, floor, row, spotNumber int, plate string) string {
	ctx, span := ic.telemetry.Tracer().Start(ctx, "facility.new_exit",
		trace.WithAttributes(
			attribute.Int("spot.floor", floor),
			attribute.Int("spot.row", row),
			attribute.Int("spot.number", spotNumber),
			attribute.String("vehicle.plate", plate),
		))
	defer span.End()

	start := time.Now()
	message := ic.Controller.NewExit(ctx, floor, row, spotNumber, plate)
	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{attribute.String("operation", "new_exit")}
	if IsError(message) {
		span.SetStatus(codes.Error, message)
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		span.AddEvent("car_parked_out")
		labels = append(labels, attribute.String("status", "success"))
		ic.occupancyGauge.Add(ctx, -1)
	}
	ic.exitOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ic.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return message
}

func (ic *InstrumentedController) NewBooking(ctx context.Context, floor, row, spotNumber int, plate string) string {
	ctx, span := ic.telemetry.Tracer().Start(ctx, "facility.new_booking",
		trace.WithAttributes(
			attribute.Int("spot.floor", floor),
			attribute.Int("spot.row", row),
			attribute.Int("spot.number", spotNumber),
			attribute.String("vehicle.plate", plate),
		))
	defer span.End()

	start := time.Now()
	message := ic.Controller.NewBooking(ctx, floor, row, spotNumber, plate)
	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{attribute.String("operation", "new_booking")}
	if IsError(message) {
		span.SetStatus(codes.Error, message)
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		span.AddEvent("spot_booked")
		labels = append(labels, attribute.String("status", "success"))
	}
	ic.bookingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ic.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return message
}

func (ic *InstrumentedController) CreateSpot(ctx context.Context, floor, row, spotNumber int) string {
	return ic.spotOperation(ctx, "create_spot", floor, row, spotNumber, ic.Controller.CreateSpot)
}

func (ic *InstrumentedController) DeleteSpot(ctx context.Context, floor, row, spotNumber int) string {
	return ic.spotOperation(ctx, "delete_spot", floor, row, spotNumber, ic.Controller.DeleteSpot)
}

func (ic *InstrumentedController) spotOperation(ctx context.Context, name string, floor, row, spotNumber int,
	op func(context.Context, int, int, int) string) string {

	ctx, span := ic.telemetry.Tracer().Start(ctx, "facility."+name,
		trace.WithAttributes(
			attribute.Int("spot.floor", floor),
			attribute.Int("spot.row", row),
			attribute.Int("spot.number", spotNumber),
		))
	defer span.End()

	start := time.Now()
	message := op(ctx, floor, row, spotNumber)
	duration := time.Since(start).Seconds()

	labels := []attribute.KeyValue{attribute.String("operation", name)}
	if IsError(message) {
		span.SetStatus(codes.Error, message)
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		labels = append(labels, attribute.String("status", "success"))
	}
	ic.spotOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ic.operationDuration.Record(ctx, duration, metric.WithAttributes(labels...))

	return message
}
