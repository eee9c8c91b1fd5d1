package services

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"schoolpay_backend/internal/models"
)

// fakeStore is the in-memory Store used by the service tests. It mirrors
// the real store's contract, including the unique-reference rejection.
type fakeStore struct {
	students  map[uint]*models.Student
	fees      map[uint]*models.Fee
	payments  map[uint]*models.Payment
	callbacks []*models.PaymentCallbackHistory
	tasks     []*models.ScheduledTask

	nextID uint
	now    time.Time

	// beforeCreatePayment, when set, runs instead of the normal insert.
	beforeCreatePayment func(p *models.Payment) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		students: make(map[uint]*models.Student),
		fees:     make(map[uint]*models.Fee),
		payments: make(map[uint]*models.Payment),
		now:      time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) tick() time.Time {
	s.now = s.now.Add(time.Minute)
	return s.now
}

func (s *fakeStore) addStudent(st *models.Student) *models.Student {
	s.nextID++
	st.ID = s.nextID
	s.students[st.ID] = st
	return st
}

func (s *fakeStore) addFee(f *models.Fee) *models.Fee {
	s.nextID++
	f.ID = s.nextID
	s.fees[f.ID] = f
	return f
}

func (s *fakeStore) CreateStudent(st *models.Student) error {
	for _, existing := range s.students {
		if existing.MatricNumber == st.MatricNumber || existing.Email == st.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	s.addStudent(st)
	return nil
}

func (s *fakeStore) GetStudent(id uint) (*models.Student, error) {
	st, ok := s.students[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return st, nil
}

func (s *fakeStore) GetStudentByMatric(matric string) (*models.Student, error) {
	for _, st := range s.students {
		if st.MatricNumber == matric {
			return st, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeStore) GetStudentByEmail(email string) (*models.Student, error) {
	for _, st := range s.students {
		if st.Email == email {
			return st, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeStore) CreateFee(f *models.Fee) error {
	s.addFee(f)
	return nil
}

func (s *fakeStore) SaveFee(f *models.Fee) error {
	s.fees[f.ID] = f
	return nil
}

func (s *fakeStore) GetFee(id uint) (*models.Fee, error) {
	f, ok := s.fees[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return f, nil
}

func (s *fakeStore) ListActiveFees(school, level string) ([]models.Fee, error) {
	var fees []models.Fee
	for _, f := range s.fees {
		if f.IsActive && (school == "" || f.AppliesTo(school, level)) {
			fees = append(fees, *f)
		}
	}
	sort.Slice(fees, func(i, j int) bool { return fees[i].ID < fees[j].ID })
	return fees, nil
}

func (s *fakeStore) FeeHasPayments(feeID uint) (bool, error) {
	for _, p := range s.payments {
		if p.FeeID == feeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) CreatePayment(p *models.Payment) error {
	if s.beforeCreatePayment != nil {
		return s.beforeCreatePayment(p)
	}
	for _, existing := range s.payments {
		if existing.Reference == p.Reference {
			return gorm.ErrDuplicatedKey
		}
	}
	s.nextID++
	p.ID = s.nextID
	p.CreatedAt = s.tick()
	s.payments[p.ID] = p
	return nil
}

func (s *fakeStore) SavePayment(p *models.Payment) error {
	s.payments[p.ID] = p
	return nil
}

func (s *fakeStore) DeletePayment(id uint) error {
	delete(s.payments, id)
	return nil
}

func (s *fakeStore) GetPaymentByReference(reference string) (*models.Payment, error) {
	for _, p := range s.payments {
		if p.Reference == reference {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeStore) HasVerifiedInstallment(studentID, feeID uint, installmentNumber int) (bool, error) {
	for _, p := range s.payments {
		if p.StudentID == studentID && p.FeeID == feeID &&
			p.InstallmentNumber == installmentNumber && p.Status == models.PaymentStatusVerified {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) ListVerifiedPayments(studentID, feeID uint) ([]models.Payment, error) {
	var payments []models.Payment
	for _, p := range s.payments {
		if p.StudentID == studentID && p.FeeID == feeID && p.Status == models.PaymentStatusVerified {
			payments = append(payments, *p)
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		if payments[i].InstallmentNumber != payments[j].InstallmentNumber {
			return payments[i].InstallmentNumber < payments[j].InstallmentNumber
		}
		return payments[i].ID < payments[j].ID
	})
	return payments, nil
}

func (s *fakeStore) LatestPaymentForStudent(studentID uint) (*models.Payment, error) {
	var latest *models.Payment
	for _, p := range s.payments {
		if p.StudentID != studentID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) ||
			(p.CreatedAt.Equal(latest.CreatedAt) && p.ID > latest.ID) {
			latest = p
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (s *fakeStore) CreateCallbackHistory(h *models.PaymentCallbackHistory) error {
	s.callbacks = append(s.callbacks, h)
	return nil
}

func (s *fakeStore) CreateScheduledTask(t *models.ScheduledTask) error {
	s.tasks = append(s.tasks, t)
	return nil
}

func (s *fakeStore) verifiedCount(reference string) int {
	count := 0
	for _, p := range s.payments {
		if p.Reference == reference && p.Status == models.PaymentStatusVerified {
			count++
		}
	}
	return count
}

// fakeGateway scripts gateway responses per reference and counts calls.
type fakeGateway struct {
	transactions map[string]*TransactionData
	initResult   *InitializeResult
	initErr      error
	verifyErr    error

	initCalls   int
	verifyCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		transactions: make(map[string]*TransactionData),
		initResult: &InitializeResult{
			AuthorizationURL: "https://checkout.example/abc",
			AccessCode:       "abc",
		},
	}
}

func (g *fakeGateway) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	g.initCalls++
	if g.initErr != nil {
		return nil, g.initErr
	}
	result := *g.initResult
	result.Reference = req.Reference
	return &result, nil
}

func (g *fakeGateway) VerifyTransaction(ctx context.Context, reference string) (*TransactionData, error) {
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	tx, ok := g.transactions[reference]
	if !ok {
		return nil, ErrInvalidReference
	}
	return tx, nil
}
