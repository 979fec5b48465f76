package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hostaria/hotel-reservation-api/internal/repository"
)

var testStamp = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func newLedgerMock(t *testing.T) (*LedgerService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	svc := NewLedgerService(db,
		repository.NewInvoiceRepo(db),
		repository.NewInvoiceLineRepo(db),
		repository.NewServiceRepo(db),
		repository.NewReservationRepo(db),
		repository.NewUserRepo(db),
		0.19)
	return svc, mock, func() { db.Close() }
}

var invoiceCols = []string{"id", "number", "prefix", "reservation_id", "client_id", "issued_at",
	"payment_method", "status", "subtotal", "tax", "total", "notes", "created_at", "updated_at"}

var lineCols = []string{"id", "invoice_id", "service_id", "description", "quantity",
	"unit_price", "subtotal", "tax", "total", "created_at"}

func invoiceRow(status string, subtotal, tax, total float64) *sqlmock.Rows {
	return sqlmock.NewRows(invoiceCols).
		AddRow(7, 1001, "FV", 11, 5, testStamp, "Pending", status, subtotal, tax, total, nil, testStamp, testStamp)
}

func TestAddServiceLineKeepsTotalsEqualToLineSums(t *testing.T) {
	svc, mock, done := newLedgerMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM invoices WHERE id = \? FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(invoiceRow("Pending", 450000, 85500, 535500))
	mock.ExpectQuery(`FROM services WHERE id = \?`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "category_id", "name", "description", "price", "active", "created_at", "updated_at"}).
			AddRow(3, nil, "Spa access", nil, 40000.0, true, testStamp, testStamp))
	mock.ExpectExec(`INSERT INTO invoice_lines`).
		WithArgs(7, 3, "Spa access", 2, 40000.0, 80000.0, 15200.0, 95200.0).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(`FROM invoice_lines WHERE id = \?`).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows(lineCols).
			AddRow(42, 7, 3, "Spa access", 2, 40000.0, 80000.0, 15200.0, 95200.0, testStamp))
	mock.ExpectExec(`UPDATE invoices i SET`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM invoices WHERE id = \?$`).
		WithArgs(7).
		WillReturnRows(invoiceRow("Pending", 530000, 100700, 630700))
	mock.ExpectQuery(`FROM invoice_lines WHERE invoice_id = \? ORDER BY id`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(lineCols).
			AddRow(41, 7, nil, "Lodging in room Double", 3, 150000.0, 450000.0, 85500.0, 535500.0, testStamp).
			AddRow(42, 7, 3, "Spa access", 2, 40000.0, 80000.0, 15200.0, 95200.0, testStamp))
	mock.ExpectCommit()

	snap, err := svc.AddServiceLine(context.Background(), 7, AddLineInput{ServiceID: 3, Quantity: 2})
	if err != nil {
		t.Fatalf("AddServiceLine: %v", err)
	}

	var sumSub, sumTax, sumTot float64
	for _, l := range snap.Lines {
		sumSub += l.Subtotal
		sumTax += l.Tax
		sumTot += l.Total
	}
	if snap.Invoice.Subtotal != sumSub || snap.Invoice.Tax != sumTax || snap.Invoice.Total != sumTot {
		t.Errorf("aggregates %v/%v/%v do not match line sums %v/%v/%v",
			snap.Invoice.Subtotal, snap.Invoice.Tax, snap.Invoice.Total, sumSub, sumTax, sumTot)
	}
	if snap.Invoice.Total != 630700 {
		t.Errorf("total = %v, want 630700", snap.Invoice.Total)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestLedgerRejectsNonPendingInvoice(t *testing.T) {
	svc, mock, done := newLedgerMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM invoices WHERE id = \? FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(invoiceRow("Paid", 450000, 85500, 535500))
	mock.ExpectRollback()

	_, err := svc.RemoveLine(context.Background(), 7, 41)
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestVoidResetsPaymentMethod(t *testing.T) {
	svc, mock, done := newLedgerMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM invoices WHERE id = \? FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(invoiceCols).
			AddRow(7, 1001, "FV", nil, 5, testStamp, "Card", "Paid", 450000, 85500, 535500, nil, testStamp, testStamp))
	mock.ExpectExec(`UPDATE invoices SET status = \?, payment_method = \? WHERE id = \?`).
		WithArgs("Voided", "Pending", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE invoices i SET`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM invoices WHERE id = \?$`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(invoiceCols).
			AddRow(7, 1001, "FV", nil, 5, testStamp, "Pending", "Voided", 450000, 85500, 535500, nil, testStamp, testStamp))
	mock.ExpectQuery(`FROM invoice_lines WHERE invoice_id = \? ORDER BY id`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(lineCols).
			AddRow(41, 7, nil, "Lodging in room Double", 3, 150000.0, 450000.0, 85500.0, 535500.0, testStamp))
	mock.ExpectCommit()

	snap, err := svc.Void(context.Background(), 7)
	if err != nil {
		t.Fatalf("Void: %v", err)
	}
	if snap.Invoice.Status != "Voided" || snap.Invoice.PaymentMethod != "Pending" {
		t.Errorf("invoice after void = %s/%s, want Voided/Pending", snap.Invoice.Status, snap.Invoice.PaymentMethod)
	}
	if len(snap.Lines) != 1 || snap.Invoice.Total != 535500 {
		t.Errorf("lines or totals were not preserved: %d lines, total %v", len(snap.Lines), snap.Invoice.Total)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
