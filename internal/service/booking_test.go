package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hostaria/hotel-reservation-api/internal/billing"
	"github.com/hostaria/hotel-reservation-api/internal/repository"
)

// staticCode pins the booking code so expectations can match on it.
type staticCode string

func (c staticCode) NewCode() (string, error) { return string(c), nil }

func newBookingMock(t *testing.T, code string) (*BookingService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	svc := NewBookingService(db,
		repository.NewReservationRepo(db),
		repository.NewRoomRepo(db),
		repository.NewInvoiceRepo(db),
		repository.NewInvoiceLineRepo(db),
		repository.NewUserRepo(db),
		staticCode(code),
		0.19)
	return svc, mock, func() { db.Close() }
}

var roomCols = []string{"id", "room_number", "room_type", "capacity", "description",
	"nightly_price", "state", "photo_path", "deactivated_at", "created_at", "updated_at"}

var reservationCols = []string{"id", "booking_code", "user_id", "room_id", "check_in",
	"check_out", "status", "note", "created_at", "updated_at"}

func roomRow(state string) *sqlmock.Rows {
	return sqlmock.NewRows(roomCols).
		AddRow(2, "204", "Double", 2, nil, 150000.0, state, nil, nil, testStamp, testStamp)
}

func TestCreateBookingIssuesLodgingInvoice(t *testing.T) {
	svc, mock, done := newBookingMock(t, "RES-7K2Q9Z")
	defer done()

	checkIn := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM rooms WHERE id = \? FOR UPDATE`).
		WithArgs(2).
		WillReturnRows(roomRow("Available"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reservations WHERE booking_code = \?`).
		WithArgs("RES-7K2Q9Z").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO reservations`).
		WithArgs("RES-7K2Q9Z", 5, 2, checkIn, checkOut, "Pending", nil).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(`FROM reservations WHERE id = \?$`).
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(11, "RES-7K2Q9Z", 5, 2, checkIn, checkOut, "Pending", nil, testStamp, testStamp))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(number\), 1000\) FROM invoices FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"number"}).AddRow(1000))
	mock.ExpectExec(`INSERT INTO invoices`).
		WithArgs(1001, "FV", 11, 5, sqlmock.AnyArg(), "Pending", "Pending", 0.0, 0.0, 0.0, nil).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery(`FROM invoices WHERE id = \?$`).
		WithArgs(7).
		WillReturnRows(invoiceRow("Pending", 0, 0, 0))
	mock.ExpectExec(`INSERT INTO invoice_lines`).
		WithArgs(7, nil, "Lodging in room Double", 3, 150000.0, 450000.0, 85500.0, 535500.0).
		WillReturnResult(sqlmock.NewResult(21, 1))
	mock.ExpectQuery(`FROM invoice_lines WHERE id = \?`).
		WithArgs(21).
		WillReturnRows(sqlmock.NewRows(lineCols).
			AddRow(21, 7, nil, "Lodging in room Double", 3, 150000.0, 450000.0, 85500.0, 535500.0, testStamp))
	mock.ExpectExec(`UPDATE invoices i SET`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM invoices WHERE id = \?$`).
		WithArgs(7).
		WillReturnRows(invoiceRow("Pending", 450000, 85500, 535500))
	mock.ExpectCommit()

	got, err := svc.Create(context.Background(), CreateBookingInput{
		UserID:   5,
		RoomID:   2,
		CheckIn:  checkIn,
		CheckOut: checkOut,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Reservation.Status != "Pending" {
		t.Errorf("status = %s, want Pending", got.Reservation.Status)
	}
	if got.Invoice.Number != 1001 || got.Invoice.Prefix != "FV" {
		t.Errorf("invoice number = %s%d, want FV1001", got.Invoice.Prefix, got.Invoice.Number)
	}
	if got.Invoice.Subtotal != 450000 || got.Invoice.Tax != 85500 || got.Invoice.Total != 535500 {
		t.Errorf("totals = %v/%v/%v, want 450000/85500/535500",
			got.Invoice.Subtotal, got.Invoice.Tax, got.Invoice.Total)
	}
	if len(got.Lines) != 1 || !got.Lines[0].Lodging() || got.Lines[0].Quantity != 3 {
		t.Errorf("expected one lodging line of 3 nights, got %+v", got.Lines)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateBookingRegeneratesLodgingLine(t *testing.T) {
	svc, mock, done := newBookingMock(t, "RES-7K2Q9Z")
	defer done()

	oldIn := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	oldOut := time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC)
	newOut := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(11, "RES-7K2Q9Z", 5, 2, oldIn, oldOut, "Pending", nil, testStamp, testStamp))
	mock.ExpectQuery(`FROM rooms WHERE id = \? FOR UPDATE`).
		WithArgs(2).
		WillReturnRows(roomRow("Available"))
	mock.ExpectExec(`UPDATE reservations SET user_id = \?, room_id = \?`).
		WithArgs(5, 2, oldIn, newOut, nil, 11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM invoices WHERE reservation_id = \? FOR UPDATE`).
		WithArgs(11).
		WillReturnRows(invoiceRow("Pending", 450000, 85500, 535500))
	mock.ExpectExec(`DELETE FROM invoice_lines WHERE invoice_id = \? AND service_id IS NULL`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO invoice_lines`).
		WithArgs(7, nil, "Lodging in room Double", 5, 150000.0, 750000.0, 142500.0, 892500.0).
		WillReturnResult(sqlmock.NewResult(22, 1))
	mock.ExpectQuery(`FROM invoice_lines WHERE id = \?`).
		WithArgs(22).
		WillReturnRows(sqlmock.NewRows(lineCols).
			AddRow(22, 7, nil, "Lodging in room Double", 5, 150000.0, 750000.0, 142500.0, 892500.0, testStamp))
	mock.ExpectExec(`UPDATE invoices i SET`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM invoices WHERE id = \?$`).
		WithArgs(7).
		WillReturnRows(invoiceRow("Pending", 750000, 142500, 892500))
	mock.ExpectQuery(`FROM invoice_lines WHERE invoice_id = \? ORDER BY id`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(lineCols).
			AddRow(22, 7, nil, "Lodging in room Double", 5, 150000.0, 750000.0, 142500.0, 892500.0, testStamp))
	mock.ExpectCommit()

	got, err := svc.Update(context.Background(), 11, UpdateBookingInput{
		RoomID:   2,
		CheckIn:  oldIn,
		CheckOut: newOut,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(got.Lines) != 1 || !got.Lines[0].Lodging() {
		t.Fatalf("expected exactly one lodging line, got %+v", got.Lines)
	}
	if got.Lines[0].Quantity != 5 {
		t.Errorf("nights = %d, want 5", got.Lines[0].Quantity)
	}
	if got.Invoice.Subtotal != 750000 || got.Invoice.Tax != 142500 || got.Invoice.Total != 892500 {
		t.Errorf("totals = %v/%v/%v, want 750000/142500/892500",
			got.Invoice.Subtotal, got.Invoice.Tax, got.Invoice.Total)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCancelReleasesRoomAndVoidsInvoice(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "unreachable://")

	svc, mock, done := newBookingMock(t, "RES-7K2Q9Z")
	defer done()

	checkIn := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(11, "RES-7K2Q9Z", 5, 2, checkIn, checkOut, "Confirmed", nil, testStamp, testStamp))
	mock.ExpectQuery(`FROM rooms WHERE id = \? FOR UPDATE`).
		WithArgs(2).
		WillReturnRows(roomRow("Occupied"))
	mock.ExpectExec(`UPDATE reservations SET status = \? WHERE id = \?`).
		WithArgs("Cancelled", 11).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE rooms SET state = \? WHERE id = \?`).
		WithArgs("Available", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM invoices WHERE reservation_id = \? FOR UPDATE`).
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows(invoiceCols).
			AddRow(7, 1001, "FV", 11, 5, testStamp, "Card", "Pending", 450000, 85500, 535500, nil, testStamp, testStamp))
	mock.ExpectExec(`UPDATE invoices SET status = \?, payment_method = \? WHERE id = \?`).
		WithArgs("Voided", "Pending", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := svc.Cancel(context.Background(), 11)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.Status != string(billing.StatusCancelled) {
		t.Errorf("status = %s, want Cancelled", got.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestChangeStatusRejectsInvalidWithoutWrites(t *testing.T) {
	svc, mock, done := newBookingMock(t, "RES-7K2Q9Z")
	defer done()

	checkIn := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2024, 1, 13, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations WHERE id = \? FOR UPDATE`).
		WithArgs(11).
		WillReturnRows(sqlmock.NewRows(reservationCols).
			AddRow(11, "RES-7K2Q9Z", 5, 2, checkIn, checkOut, "Completed", nil, testStamp, testStamp))
	mock.ExpectRollback()

	_, err := svc.ChangeStatus(context.Background(), 11, billing.StatusConfirmed)
	var invalid *billing.InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}
	if invalid.From != billing.StatusCompleted || invalid.To != billing.StatusConfirmed {
		t.Errorf("transition = %s->%s, want Completed->Confirmed", invalid.From, invalid.To)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
