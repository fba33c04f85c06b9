// Package service orchestrates the finance pipeline: it fetches a consistent
// snapshot of raw records, funnels them through the domain normalizer and
// hands the canonical snapshot to the pure engine. All I/O happens here,
// before the engine runs; the engine itself never blocks.
package service

import (
	"context"
	"time"

	"backoffice_backend/internal/events"
	"backoffice_backend/internal/finance/domain"
	"backoffice_backend/internal/finance/repository"
	"backoffice_backend/internal/finance/transport"
	"backoffice_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Config is the tuning surface for the finance service.
type Config interface {
	GetAggregateJobLimit() int
	GetAggregateInvoiceLimit() int
	GetSummaryTimeout() time.Duration
}

// Service provides the financial computations behind the client and job
// screens.
type Service struct {
	repo     repository.SnapshotReader
	log      *logger.Logger
	cfg      Config
	eventBus events.Bus // optional; nil means no event integration

	// now is injectable for due-date tests.
	now func() time.Time
}

// New creates a new finance service.
func New(repo repository.SnapshotReader, log *logger.Logger, cfg Config) *Service {
	return &Service{
		repo: repo,
		log:  log,
		cfg:  cfg,
		now:  time.Now,
	}
}

// SetEventBus injects the event bus (set after construction to break circular deps).
func (s *Service) SetEventBus(bus events.Bus) {
	s.eventBus = bus
}

// SetClock overrides the time source. Test hook.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// snapshot is the canonical, in-memory view of one client's records.
type snapshot struct {
	jobs     []domain.Job
	invoices []domain.Invoice
	payments []domain.Payment
	dropped  map[string]int
}

// jobState fetches one job's records concurrently and derives its financial
// state. Records that fail normalization are dropped and reported, same as on
// the client path.
func (s *Service) jobState(ctx context.Context, jobID uuid.UUID) (domain.JobFinancialState, error) {
	var rawJob domain.RawRecord
	var rawInvoices, rawPayments []domain.RawRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rawJob, err = s.repo.GetJob(gctx, jobID)
		return err
	})
	g.Go(func() error {
		var err error
		rawInvoices, err = s.repo.ListInvoicesByJob(gctx, jobID)
		return err
	})
	g.Go(func() error {
		var err error
		rawPayments, err = s.repo.ListPaymentsByJob(gctx, jobID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.JobFinancialState{}, err
	}

	job, err := domain.NormalizeJob(rawJob)
	if err != nil {
		return domain.JobFinancialState{}, err
	}

	snap := s.normalize(nil, rawInvoices, rawPayments)
	s.publishDropped(ctx, parseClientID(job.ClientID), jobID, snap.dropped)
	return domain.ComputeJobFinancialState(job, snap.invoices, snap.payments, s.now()), nil
}

// JobFinancialState computes the derived financial state of one job.
func (s *Service) JobFinancialState(ctx context.Context, jobID uuid.UUID) (*transport.JobFinancialStateResponse, error) {
	state, err := s.jobState(ctx, jobID)
	if err != nil {
		return nil, err
	}
	resp := transport.FromJobState(state)
	return &resp, nil
}

// JobInvoices returns the classified invoice list for one job, each with its
// settlement state.
func (s *Service) JobInvoices(ctx context.Context, jobID uuid.UUID) (*transport.InvoiceListResponse, error) {
	state, err := s.jobState(ctx, jobID)
	if err != nil {
		return nil, err
	}
	resp := transport.FromInvoiceStates(state)
	return &resp, nil
}

// ClientFinancialSummary rolls up a client's financial position. The
// aggregation is wrapped in a timeout safety valve: if it fires, a zeroed
// fallback summary flagged TimedOut is returned rather than failing the
// caller's render.
func (s *Service) ClientFinancialSummary(ctx context.Context, clientID uuid.UUID) (*transport.ClientFinancialSummaryResponse, error) {
	snap, err := s.fetchClientSnapshot(ctx, clientID)
	if err != nil {
		return nil, err
	}

	limits := domain.AggregateLimits{
		MaxJobs:     s.cfg.GetAggregateJobLimit(),
		MaxInvoices: s.cfg.GetAggregateInvoiceLimit(),
	}

	summary, timedOut := s.aggregateWithTimeout(ctx, clientID, snap, limits)
	if timedOut {
		s.log.Warn("client summary aggregation timed out, returning fallback",
			"client_id", clientID.String(),
			"job_count", len(snap.jobs),
			"invoice_count", len(snap.invoices),
		)
		s.publish(ctx, events.FinancialSummaryTimedOut{
			BaseEvent: events.NewBaseEvent(),
			ClientID:  clientID,
		})
		resp := transport.FromSummary(clientID.String(), domain.ClientFinancialSummary{}, true)
		return &resp, nil
	}

	if summary.Degraded {
		s.log.ComputationDegraded(clientID.String(), len(snap.jobs), len(snap.invoices))
		s.publish(ctx, events.FinancialSummaryDegraded{
			BaseEvent:    events.NewBaseEvent(),
			ClientID:     clientID,
			JobCount:     len(snap.jobs),
			InvoiceCount: len(snap.invoices),
		})
	}

	resp := transport.FromSummary(clientID.String(), summary, false)
	return &resp, nil
}

// ClientIndicators computes the prioritized "needs attention" list for a
// client overview.
func (s *Service) ClientIndicators(ctx context.Context, clientID uuid.UUID) (*transport.IndicatorListResponse, error) {
	snap, err := s.fetchClientSnapshot(ctx, clientID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	invoicesByJob := groupInvoices(snap.invoices)
	paymentsByJob := groupPayments(snap.payments, snap.invoices, snap.jobs)

	states := make([]domain.JobFinancialState, 0, len(snap.jobs))
	for _, job := range snap.jobs {
		states = append(states, domain.ComputeJobFinancialState(job, invoicesByJob[job.ID], paymentsByJob[job.ID], now))
	}

	resp := transport.FromIndicators(clientID.String(), domain.GenerateStatusIndicators(states, now))
	return &resp, nil
}

// fetchClientSnapshot loads the four record collections concurrently and
// normalizes them into a consistent snapshot. Records that fail
// normalization are dropped and reported, never fatal.
func (s *Service) fetchClientSnapshot(ctx context.Context, clientID uuid.UUID) (*snapshot, error) {
	var rawJobs, rawInvoices, rawPayments []domain.RawRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Existence check; the summary needs nothing from the record itself.
		_, err := s.repo.GetClient(gctx, clientID)
		return err
	})
	g.Go(func() error {
		var err error
		rawJobs, err = s.repo.ListJobsByClient(gctx, clientID)
		return err
	})
	g.Go(func() error {
		var err error
		rawInvoices, err = s.repo.ListInvoicesByClient(gctx, clientID)
		return err
	})
	g.Go(func() error {
		var err error
		rawPayments, err = s.repo.ListPaymentsByClient(gctx, clientID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := s.normalize(rawJobs, rawInvoices, rawPayments)
	s.publishDropped(ctx, clientID, uuid.Nil, snap.dropped)
	return snap, nil
}

// publishDropped reports records excluded from a snapshot, one event per
// entity type. Either id may be zero when that scope is unknown.
func (s *Service) publishDropped(ctx context.Context, clientID, jobID uuid.UUID, dropped map[string]int) {
	for entity, count := range dropped {
		s.publish(ctx, events.RecordsDropped{
			BaseEvent: events.NewBaseEvent(),
			ClientID:  clientID,
			JobID:     jobID,
			Entity:    entity,
			Count:     count,
		})
	}
}

func parseClientID(raw string) uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// normalize funnels raw records through the domain normalizer, dropping and
// counting the ones that fail.
func (s *Service) normalize(rawJobs, rawInvoices, rawPayments []domain.RawRecord) *snapshot {
	snap := &snapshot{dropped: make(map[string]int)}

	for _, raw := range rawJobs {
		job, err := domain.NormalizeJob(raw)
		if err != nil {
			s.dropRecord(snap, "job", err)
			continue
		}
		snap.jobs = append(snap.jobs, job)
	}
	for _, raw := range rawInvoices {
		invoice, err := domain.NormalizeInvoice(raw)
		if err != nil {
			s.dropRecord(snap, "invoice", err)
			continue
		}
		snap.invoices = append(snap.invoices, invoice)
	}
	for _, raw := range rawPayments {
		payment, err := domain.NormalizePayment(raw)
		if err != nil {
			s.dropRecord(snap, "payment", err)
			continue
		}
		snap.payments = append(snap.payments, payment)
	}
	return snap
}

func (s *Service) dropRecord(snap *snapshot, entity string, err error) {
	snap.dropped[entity]++
	s.log.Warn("dropping record that failed normalization",
		"entity", entity,
		"error", err.Error(),
	)
}

// aggregateWithTimeout runs the aggregation under the configured deadline.
// The engine itself cannot be interrupted (it is pure computation), so the
// result of an abandoned run is simply discarded.
func (s *Service) aggregateWithTimeout(ctx context.Context, clientID uuid.UUID, snap *snapshot, limits domain.AggregateLimits) (domain.ClientFinancialSummary, bool) {
	timeout := s.cfg.GetSummaryTimeout()
	if timeout <= 0 {
		return domain.ComputeClientFinancialSummaryWithLimits(snap.jobs, snap.invoices, snap.payments, s.now(), limits), false
	}

	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan domain.ClientFinancialSummary, 1)
	go func() {
		done <- domain.ComputeClientFinancialSummaryWithLimits(snap.jobs, snap.invoices, snap.payments, s.now(), limits)
	}()

	select {
	case summary := <-done:
		return summary, false
	case <-tctx.Done():
		return domain.ClientFinancialSummary{}, true
	}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, event)
	}
}

func groupInvoices(invoices []domain.Invoice) map[string][]domain.Invoice {
	byJob := make(map[string][]domain.Invoice)
	for _, inv := range invoices {
		byJob[inv.JobID] = append(byJob[inv.JobID], inv)
	}
	return byJob
}

// groupPayments resolves each payment to a job, through the invoice when the
// payment carries no job link of its own. Fully unlinked payments join the
// sole job's pool when the client has exactly one job; with several jobs no
// attribution may be guessed and they stay out of per-job allocation.
func groupPayments(payments []domain.Payment, invoices []domain.Invoice, jobs []domain.Job) map[string][]domain.Payment {
	invoiceJob := make(map[string]string, len(invoices))
	for _, inv := range invoices {
		invoiceJob[inv.ID] = inv.JobID
	}
	byJob := make(map[string][]domain.Payment)
	for _, p := range payments {
		jobID := p.JobID
		if jobID == "" && p.InvoiceID != "" {
			jobID = invoiceJob[p.InvoiceID]
		}
		if jobID == "" && len(jobs) == 1 {
			jobID = jobs[0].ID
		}
		if jobID == "" {
			continue
		}
		byJob[jobID] = append(byJob[jobID], p)
	}
	return byJob
}
