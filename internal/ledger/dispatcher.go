package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
	"gorm.io/datatypes"

	"github.com/HGakash/agrihub/internal/model"
)

const (
	defaultTimeout     = 10 * time.Second
	defaultMaxInFlight = 16

	outcomeDropped = "dropped"
)

type Writer interface {
	Write(ctx context.Context, event model.LedgerEvent) (string, error)
}

type Recorder interface {
	RecordReceipt(ctx context.Context, receipt *model.LedgerReceipt) error
}

type Observer interface {
	ObserveLedgerWrite(outcome string)
}

type Options struct {
	Timeout     time.Duration
	MaxInFlight int
}

// Dispatcher implements a fire-and-forget notifier on top of a Writer.
// At most MaxInFlight writes run at once; events beyond that are dropped.
type Dispatcher struct {
	writer   Writer
	recorder Recorder
	observer Observer
	log      zerolog.Logger
	timeout  time.Duration
	sem      *semaphore.Weighted

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(writer Writer, recorder Recorder, observer Observer, log zerolog.Logger, opts Options) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = defaultMaxInFlight
	}
	return &Dispatcher{
		writer:   writer,
		recorder: recorder,
		observer: observer,
		log:      log.With().Str("component", "ledger").Logger(),
		timeout:  opts.Timeout,
		sem:      semaphore.NewWeighted(int64(opts.MaxInFlight)),
	}
}

// Notify schedules a write and returns immediately.
func (d *Dispatcher) Notify(event model.LedgerEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warn().Str("contract_id", event.ContractID.String()).Msg("ledger dispatcher closed, dropping event")
		d.observe(outcomeDropped)
		return
	}
	if !d.sem.TryAcquire(1) {
		d.log.Warn().Str("contract_id", event.ContractID.String()).Msg("ledger busy, dropping event")
		d.observe(outcomeDropped)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				d.log.Error().Interface("panic", r).Str("contract_id", event.ContractID.String()).Msg("ledger write panicked")
				d.observe(string(model.LedgerOutcomeFailed))
			}
		}()
		d.write(event)
	}()
}

// Close stops accepting events and waits for in-flight writes or ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) write(event model.LedgerEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	started := time.Now()
	txHash, err := d.writer.Write(ctx, event)

	receipt := &model.LedgerReceipt{
		ContractID: event.ContractID,
		Status:     event.Status,
		Outcome:    model.LedgerOutcomeRecorded,
		TxHash:     txHash,
	}
	if payload, mErr := json.Marshal(event); mErr == nil {
		receipt.Payload = datatypes.JSON(payload)
	}

	logEvent := d.log.Info()
	if err != nil {
		receipt.Outcome = model.LedgerOutcomeFailed
		receipt.Error = err.Error()
		logEvent = d.log.Warn().Err(err)
	}
	logEvent.
		Str("contract_id", event.ContractID.String()).
		Str("status", string(event.Status)).
		Str("tx_hash", txHash).
		Dur("elapsed", time.Since(started)).
		Msg(fmt.Sprintf("ledger write %s", receipt.Outcome))
	d.observe(string(receipt.Outcome))

	if d.recorder == nil {
		return
	}
	recordCtx, recordCancel := context.WithTimeout(context.Background(), d.timeout)
	defer recordCancel()
	if err := d.recorder.RecordReceipt(recordCtx, receipt); err != nil {
		d.log.Warn().Err(err).Str("contract_id", event.ContractID.String()).Msg("failed to record ledger receipt")
	}
}

func (d *Dispatcher) observe(outcome string) {
	if d.observer != nil {
		d.observer.ObserveLedgerWrite(outcome)
	}
}
