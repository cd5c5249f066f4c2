package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"fieldops/backend/internal/model"
	pkgerrors "fieldops/backend/pkg/errors"
)

// ── Mock TenantRepository ──

type mockTenantRepo struct {
	tenants map[string]*model.Tenant
}

func newMockTenantRepo() *mockTenantRepo {
	return &mockTenantRepo{tenants: make(map[string]*model.Tenant)}
}

func (m *mockTenantRepo) CreateWithOwner(_ context.Context, tenant *model.Tenant, owner *model.User) error {
	if tenant.TenantID == "" {
		tenant.TenantID = fmt.Sprintf("tenant-%d", len(m.tenants)+1)
	}
	m.tenants[tenant.TenantID] = tenant
	return nil
}

func (m *mockTenantRepo) GetByID(_ context.Context, id string) (*model.Tenant, error) {
	if t, ok := m.tenants[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTenantRepo) GetByFeedToken(_ context.Context, token string) (*model.Tenant, error) {
	for _, t := range m.tenants {
		if t.FeedToken == token {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTenantRepo) Update(_ context.Context, tenant *model.Tenant) error {
	m.tenants[tenant.TenantID] = tenant
	return nil
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context, tenantID string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.TenantID == tenantID {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, tenantID, id string, _ string) error {
	delete(m.users, id)
	return nil
}

// ── Mock ContactRepository ──

type mockContactRepo struct {
	contacts  map[string]*model.Contact
	idCounter int
}

func newMockContactRepo() *mockContactRepo {
	return &mockContactRepo{contacts: make(map[string]*model.Contact)}
}

func (m *mockContactRepo) Create(_ context.Context, contact *model.Contact) error {
	if contact.ContactID == "" {
		m.idCounter++
		contact.ContactID = fmt.Sprintf("contact-%d", m.idCounter)
	}
	m.contacts[contact.ContactID] = contact
	return nil
}

func (m *mockContactRepo) GetByID(_ context.Context, tenantID, id string) (*model.Contact, error) {
	if c, ok := m.contacts[id]; ok && c.TenantID == tenantID {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockContactRepo) GetByEmail(_ context.Context, tenantID, email string) (*model.Contact, error) {
	for _, c := range m.contacts {
		if c.TenantID == tenantID && c.Email == email {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockContactRepo) List(_ context.Context, tenantID, q string, offset, limit int) ([]model.Contact, int64, error) {
	var filtered []model.Contact
	for _, c := range m.contacts {
		if c.TenantID != tenantID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(q)) {
			continue
		}
		filtered = append(filtered, *c)
	}
	total := int64(len(filtered))
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (m *mockContactRepo) Update(_ context.Context, contact *model.Contact) error {
	m.contacts[contact.ContactID] = contact
	return nil
}

func (m *mockContactRepo) Archive(_ context.Context, tenantID, id string, _ string) error {
	delete(m.contacts, id)
	return nil
}

// ── Mock ServiceRepository ──

type mockServiceRepo struct {
	services map[string]*model.Service
}

func newMockServiceRepo() *mockServiceRepo {
	return &mockServiceRepo{services: make(map[string]*model.Service)}
}

func (m *mockServiceRepo) Create(_ context.Context, svc *model.Service) error {
	if svc.ServiceID == "" {
		svc.ServiceID = fmt.Sprintf("svc-%d", len(m.services)+1)
	}
	m.services[svc.ServiceID] = svc
	return nil
}

func (m *mockServiceRepo) GetByID(_ context.Context, tenantID, id string) (*model.Service, error) {
	if s, ok := m.services[id]; ok && s.TenantID == tenantID {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockServiceRepo) GetActiveByID(_ context.Context, id string) (*model.Service, error) {
	if s, ok := m.services[id]; ok && s.IsActive {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockServiceRepo) List(_ context.Context, tenantID string, includeInactive bool) ([]model.Service, error) {
	var result []model.Service
	for _, s := range m.services {
		if s.TenantID != tenantID {
			continue
		}
		if !includeInactive && !s.IsActive {
			continue
		}
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockServiceRepo) Update(_ context.Context, svc *model.Service) error {
	m.services[svc.ServiceID] = svc
	return nil
}

func (m *mockServiceRepo) ReplaceWorkingHours(_ context.Context, serviceID string, hours []model.WorkingHour) error {
	if s, ok := m.services[serviceID]; ok {
		s.WorkingHours = hours
	}
	return nil
}

func (m *mockServiceRepo) Delete(_ context.Context, tenantID, id string, _ string) error {
	delete(m.services, id)
	return nil
}

// ── Mock RecurrenceRepository ──

type mockRecurrenceRepo struct {
	recurrences map[string]*model.Recurrence
}

func newMockRecurrenceRepo() *mockRecurrenceRepo {
	return &mockRecurrenceRepo{recurrences: make(map[string]*model.Recurrence)}
}

func (m *mockRecurrenceRepo) Create(_ context.Context, rec *model.Recurrence) error {
	if rec.RecurrenceID == "" {
		rec.RecurrenceID = fmt.Sprintf("rec-%d", len(m.recurrences)+1)
	}
	m.recurrences[rec.RecurrenceID] = rec
	return nil
}

func (m *mockRecurrenceRepo) GetByID(_ context.Context, tenantID, id string) (*model.Recurrence, error) {
	if r, ok := m.recurrences[id]; ok && r.TenantID == tenantID {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock JobRepository ──

type mockJobRepo struct {
	jobs        map[string]*model.Job
	recurrences *mockRecurrenceRepo
	idCounter   int
}

func newMockJobRepo(recurrences *mockRecurrenceRepo) *mockJobRepo {
	return &mockJobRepo{jobs: make(map[string]*model.Job), recurrences: recurrences}
}

func (m *mockJobRepo) Create(_ context.Context, job *model.Job) error {
	if job.JobID == "" {
		m.idCounter++
		job.JobID = fmt.Sprintf("job-%d", m.idCounter)
	}
	m.jobs[job.JobID] = job
	return nil
}

func (m *mockJobRepo) CreateWithRecurrence(ctx context.Context, rec *model.Recurrence, jobs []model.Job) error {
	if err := m.recurrences.Create(ctx, rec); err != nil {
		return err
	}
	for i := range jobs {
		jobs[i].RecurrenceID = &rec.RecurrenceID
		cp := jobs[i]
		if err := m.Create(ctx, &cp); err != nil {
			return err
		}
		jobs[i].JobID = cp.JobID
	}
	return nil
}

func (m *mockJobRepo) CreateIfSlotFree(ctx context.Context, job *model.Job) error {
	if job.ServiceID != nil && job.StartTime != nil && job.EndTime != nil {
		n, _ := m.CountOverlapping(ctx, *job.ServiceID, *job.StartTime, *job.EndTime, "")
		if n > 0 {
			return pkgerrors.ErrSlotConflict
		}
	}
	return m.Create(ctx, job)
}

func (m *mockJobRepo) GetByID(_ context.Context, tenantID, id string) (*model.Job, error) {
	if j, ok := m.jobs[id]; ok && j.TenantID == tenantID {
		return j, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockJobRepo) ListInRange(_ context.Context, tenantID string, from, to time.Time) ([]model.Job, error) {
	var result []model.Job
	for _, j := range m.jobs {
		if j.TenantID != tenantID || j.StartTime == nil || j.EndTime == nil {
			continue
		}
		if j.StartTime.Before(to) && j.EndTime.After(from) {
			result = append(result, *j)
		}
	}
	sort.Slice(result, func(a, b int) bool { return result[a].StartTime.Before(*result[b].StartTime) })
	return result, nil
}

func (m *mockJobRepo) ListByContact(_ context.Context, tenantID, contactID string, offset, limit int) ([]model.Job, int64, error) {
	var filtered []model.Job
	for _, j := range m.jobs {
		if j.TenantID == tenantID && j.ContactID == contactID {
			filtered = append(filtered, *j)
		}
	}
	total := int64(len(filtered))
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (m *mockJobRepo) ListToBeScheduled(_ context.Context, tenantID string) ([]model.Job, error) {
	var result []model.Job
	for _, j := range m.jobs {
		if j.TenantID == tenantID && j.ToBeScheduled && !j.IsTerminal() {
			result = append(result, *j)
		}
	}
	return result, nil
}

func (m *mockJobRepo) ListOverlapping(_ context.Context, serviceID string, from, to time.Time) ([]model.Job, error) {
	var result []model.Job
	for _, j := range m.jobs {
		if j.ServiceID == nil || *j.ServiceID != serviceID {
			continue
		}
		if j.Status == model.JobStatusCancelled || j.StartTime == nil || j.EndTime == nil {
			continue
		}
		if j.StartTime.Before(to) && j.EndTime.After(from) {
			result = append(result, *j)
		}
	}
	return result, nil
}

func (m *mockJobRepo) CountOverlapping(ctx context.Context, serviceID string, from, to time.Time, excludeJobID string) (int64, error) {
	jobs, _ := m.ListOverlapping(ctx, serviceID, from, to)
	var count int64
	for _, j := range jobs {
		if j.JobID != excludeJobID {
			count++
		}
	}
	return count, nil
}

func (m *mockJobRepo) ListPendingBefore(_ context.Context, cutoff time.Time) ([]model.Job, error) {
	var result []model.Job
	for _, j := range m.jobs {
		if j.Status == model.JobStatusPendingConfirmation && j.CreatedAt.Before(cutoff) {
			result = append(result, *j)
		}
	}
	return result, nil
}

func (m *mockJobRepo) Update(_ context.Context, job *model.Job) error {
	if _, ok := m.jobs[job.JobID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.jobs[job.JobID] = job
	return nil
}

func (m *mockJobRepo) UpdateFutureOccurrences(_ context.Context, tenantID, recurrenceID string, fromStart time.Time, updates map[string]interface{}) (int64, error) {
	_, changesStatus := updates["status"]
	var affected int64
	for _, j := range m.jobs {
		if j.TenantID != tenantID || j.RecurrenceID == nil || *j.RecurrenceID != recurrenceID {
			continue
		}
		if j.StartTime == nil || j.StartTime.Before(fromStart) {
			continue
		}
		if changesStatus && j.IsTerminal() {
			continue
		}
		if v, ok := updates["title"]; ok {
			j.Title = v.(string)
		}
		if v, ok := updates["notes"]; ok {
			j.Notes = v.(string)
		}
		if v, ok := updates["status"]; ok {
			j.Status = v.(string)
		}
		if v, ok := updates["cancel_reason"]; ok {
			j.CancelReason = v.(string)
		}
		affected++
	}
	return affected, nil
}

func (m *mockJobRepo) DeleteFutureOccurrences(_ context.Context, tenantID, recurrenceID string, fromStart time.Time, _ string) (int64, error) {
	var affected int64
	for id, j := range m.jobs {
		if j.TenantID != tenantID || j.RecurrenceID == nil || *j.RecurrenceID != recurrenceID {
			continue
		}
		if j.StartTime == nil || j.StartTime.Before(fromStart) {
			continue
		}
		delete(m.jobs, id)
		affected++
	}
	return affected, nil
}

func (m *mockJobRepo) Delete(_ context.Context, tenantID, id string, _ string) error {
	delete(m.jobs, id)
	return nil
}

func (m *mockJobRepo) ReplaceBreaks(_ context.Context, jobID string, breaks []model.JobBreak) error {
	if j, ok := m.jobs[jobID]; ok {
		j.Breaks = breaks
	}
	return nil
}

func (m *mockJobRepo) ReplaceAssignments(_ context.Context, jobID string, assignments []model.JobAssignment) error {
	if j, ok := m.jobs[jobID]; ok {
		j.Assignments = assignments
	}
	return nil
}

// ── Mock QuoteRepository ──

type mockQuoteRepo struct {
	quotes    map[string]*model.Quote
	idCounter int
}

func newMockQuoteRepo() *mockQuoteRepo {
	return &mockQuoteRepo{quotes: make(map[string]*model.Quote)}
}

func (m *mockQuoteRepo) Create(_ context.Context, quote *model.Quote, items []model.QuoteLineItem) error {
	if quote.QuoteID == "" {
		m.idCounter++
		quote.QuoteID = fmt.Sprintf("quote-%d", m.idCounter)
	}
	for i := range items {
		items[i].QuoteID = quote.QuoteID
		items[i].LineItemID = fmt.Sprintf("%s-item-%d", quote.QuoteID, i+1)
	}
	quote.LineItems = items
	m.quotes[quote.QuoteID] = quote
	return nil
}

func (m *mockQuoteRepo) GetByID(_ context.Context, tenantID, id string) (*model.Quote, error) {
	if q, ok := m.quotes[id]; ok && q.TenantID == tenantID {
		return q, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockQuoteRepo) List(_ context.Context, tenantID, status string, offset, limit int) ([]model.Quote, int64, error) {
	var filtered []model.Quote
	for _, q := range m.quotes {
		if q.TenantID != tenantID {
			continue
		}
		if status != "" && q.Status != status {
			continue
		}
		filtered = append(filtered, *q)
	}
	total := int64(len(filtered))
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (m *mockQuoteRepo) Update(_ context.Context, quote *model.Quote) error {
	if _, ok := m.quotes[quote.QuoteID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.quotes[quote.QuoteID] = quote
	return nil
}

func (m *mockQuoteRepo) ReplaceLineItems(_ context.Context, quoteID string, items []model.QuoteLineItem) error {
	if q, ok := m.quotes[quoteID]; ok {
		for i := range items {
			items[i].QuoteID = quoteID
		}
		q.LineItems = items
	}
	return nil
}

func (m *mockQuoteRepo) Delete(_ context.Context, tenantID, id string, _ string) error {
	delete(m.quotes, id)
	return nil
}

// ── Mock InvoiceRepository ──

type mockInvoiceRepo struct {
	invoices map[string]*model.Invoice
	counters map[string]int // "tenantID:year" → next_seq
	idSeq    int
}

func newMockInvoiceRepo() *mockInvoiceRepo {
	return &mockInvoiceRepo{
		invoices: make(map[string]*model.Invoice),
		counters: make(map[string]int),
	}
}

func (m *mockInvoiceRepo) Create(_ context.Context, invoice *model.Invoice, items []model.InvoiceLineItem, year int) error {
	key := fmt.Sprintf("%s:%d", invoice.TenantID, year)
	seq := m.counters[key] + 1
	m.counters[key] = seq

	invoice.InvoiceNumber = fmt.Sprintf("INV-%d-%04d", year, seq)
	m.idSeq++
	if invoice.InvoiceID == "" {
		invoice.InvoiceID = fmt.Sprintf("inv-%d", m.idSeq)
	}
	for i := range items {
		items[i].InvoiceID = invoice.InvoiceID
		items[i].LineItemID = fmt.Sprintf("%s-item-%d", invoice.InvoiceID, i+1)
	}
	invoice.LineItems = items
	m.invoices[invoice.InvoiceID] = invoice
	return nil
}

// GetByID 返回副本，模拟真实仓储每次查询都重新加载关联
func (m *mockInvoiceRepo) GetByID(_ context.Context, tenantID, id string) (*model.Invoice, error) {
	if inv, ok := m.invoices[id]; ok && inv.TenantID == tenantID {
		cp := *inv
		cp.LineItems = append([]model.InvoiceLineItem(nil), inv.LineItems...)
		cp.Payments = append([]model.InvoicePayment(nil), inv.Payments...)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInvoiceRepo) List(_ context.Context, tenantID, status string, offset, limit int) ([]model.Invoice, int64, error) {
	var filtered []model.Invoice
	for _, inv := range m.invoices {
		if inv.TenantID != tenantID {
			continue
		}
		if status != "" && inv.Status != status {
			continue
		}
		filtered = append(filtered, *inv)
	}
	total := int64(len(filtered))
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (m *mockInvoiceRepo) ListByYear(_ context.Context, tenantID string, year int) ([]model.Invoice, error) {
	prefix := fmt.Sprintf("INV-%d-", year)
	var result []model.Invoice
	for _, inv := range m.invoices {
		if inv.TenantID == tenantID && strings.HasPrefix(inv.InvoiceNumber, prefix) {
			result = append(result, *inv)
		}
	}
	sort.Slice(result, func(a, b int) bool { return result[a].InvoiceNumber < result[b].InvoiceNumber })
	return result, nil
}

func (m *mockInvoiceRepo) Update(_ context.Context, invoice *model.Invoice) error {
	if _, ok := m.invoices[invoice.InvoiceID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.invoices[invoice.InvoiceID] = invoice
	return nil
}

func (m *mockInvoiceRepo) ReplaceLineItems(_ context.Context, invoiceID string, items []model.InvoiceLineItem) error {
	if inv, ok := m.invoices[invoiceID]; ok {
		for i := range items {
			items[i].InvoiceID = invoiceID
		}
		inv.LineItems = items
	}
	return nil
}

func (m *mockInvoiceRepo) AddPayment(_ context.Context, payment *model.InvoicePayment) error {
	inv, ok := m.invoices[payment.InvoiceID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	payment.PaymentID = fmt.Sprintf("%s-pay-%d", payment.InvoiceID, len(inv.Payments)+1)
	inv.Payments = append(inv.Payments, *payment)
	return nil
}

func (m *mockInvoiceRepo) Delete(_ context.Context, tenantID, id string, _ string) error {
	delete(m.invoices, id)
	return nil
}

// ── Mock TimeEntryRepository ──

type mockTimeEntryRepo struct {
	entries   map[string]*model.TimeEntry
	idCounter int
}

func newMockTimeEntryRepo() *mockTimeEntryRepo {
	return &mockTimeEntryRepo{entries: make(map[string]*model.TimeEntry)}
}

func (m *mockTimeEntryRepo) Create(_ context.Context, entry *model.TimeEntry) error {
	if entry.TimeEntryID == "" {
		m.idCounter++
		entry.TimeEntryID = fmt.Sprintf("te-%d", m.idCounter)
	}
	m.entries[entry.TimeEntryID] = entry
	return nil
}

func (m *mockTimeEntryRepo) GetByID(_ context.Context, tenantID, id string) (*model.TimeEntry, error) {
	if e, ok := m.entries[id]; ok && e.TenantID == tenantID {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimeEntryRepo) GetRunningByUser(_ context.Context, userID string) (*model.TimeEntry, error) {
	for _, e := range m.entries {
		if e.UserID == userID && e.EndedAt == nil {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimeEntryRepo) ListByJob(_ context.Context, tenantID, jobID string) ([]model.TimeEntry, error) {
	var result []model.TimeEntry
	for _, e := range m.entries {
		if e.TenantID == tenantID && e.JobID != nil && *e.JobID == jobID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockTimeEntryRepo) ListByUserRange(_ context.Context, tenantID, userID string, from, to time.Time, offset, limit int) ([]model.TimeEntry, int64, error) {
	var filtered []model.TimeEntry
	for _, e := range m.entries {
		if e.TenantID != tenantID || e.UserID != userID {
			continue
		}
		if e.StartedAt.Before(from) || !e.StartedAt.Before(to) {
			continue
		}
		filtered = append(filtered, *e)
	}
	total := int64(len(filtered))
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (m *mockTimeEntryRepo) Update(_ context.Context, entry *model.TimeEntry) error {
	if _, ok := m.entries[entry.TimeEntryID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.entries[entry.TimeEntryID] = entry
	return nil
}

func (m *mockTimeEntryRepo) Delete(_ context.Context, tenantID, id string, _ string) error {
	delete(m.entries, id)
	return nil
}
