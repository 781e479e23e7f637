package state

import (
	"time"

	"chacara-backend/internal/domain"
)

func ptr[T any](v T) *T { return &v }

// DemoSeed returns the collections a fresh demo install starts with.
// Every payment mirrors its reservation's payment status.
func DemoSeed() Snapshot {
	created := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	return Snapshot{
		Properties: []domain.Property{
			{
				ID: 1, Name: "Chácara Vista Verde", OwnerName: "João Proprietário", OwnerID: ptr(int32(2)),
				Location: "Atibaia, SP", Capacity: 50, PricePerDay: 300,
				Status: domain.PropertyStatusApproved, ReservationCount: 2, Revenue: 1500,
				RegisteredAt: "2024-01-15", Description: "Piscina, churrasqueira e salão de festas", Rating: ptr(4.8),
			},
			{
				ID: 2, Name: "Recanto das Águas", OwnerName: "João Proprietário", OwnerID: ptr(int32(2)),
				Location: "Mairiporã, SP", Capacity: 80, PricePerDay: 450,
				Status: domain.PropertyStatusApproved, ReservationCount: 1, Revenue: 900,
				RegisteredAt: "2024-02-20", Rating: ptr(4.6),
			},
			{
				ID: 3, Name: "Sítio Bela Vista", OwnerName: "Carlos Souza",
				Location: "Ibiúna, SP", Capacity: 30, PricePerDay: 200,
				Status: domain.PropertyStatusPending, RegisteredAt: "2024-09-10",
			},
		},
		Reservations: []domain.Reservation{
			{
				ID: "seed-1", PropertyID: "1", PropertyName: "Chácara Vista Verde",
				ClientName: "Maria Visitante", ClientEmail: "visitante@chacaras.com",
				CheckIn: "2024-11-15", CheckOut: "2024-11-17", Guests: 20, TotalAmount: 600,
				Status: domain.ReservationStatusConfirmed, PaymentStatus: domain.PaymentStatusPaid,
				CreatedAt: created, UserID: ptr(int32(3)),
			},
			{
				ID: "seed-2", PropertyID: "2", PropertyName: "Recanto das Águas",
				ClientName: "Pedro Lima", ClientEmail: "pedro@exemplo.com",
				CheckIn: "2024-12-20", CheckOut: "2024-12-22", Guests: 40, TotalAmount: 900,
				Status: domain.ReservationStatusPending, PaymentStatus: domain.PaymentStatusPending,
				CreatedAt: created.Add(24 * time.Hour),
			},
			{
				ID: "seed-3", PropertyID: "1", PropertyName: "Chácara Vista Verde",
				ClientName: "Ana Costa", ClientEmail: "ana@exemplo.com",
				CheckIn: "2024-10-05", CheckOut: "2024-10-08", Guests: 15, TotalAmount: 900,
				Status: domain.ReservationStatusConfirmed, PaymentStatus: domain.PaymentStatusOverdue,
				CreatedAt: created.Add(-72 * time.Hour),
			},
		},
		Payments: []domain.Payment{
			{
				ID: domain.PaymentIDFor("seed-1"), ReservationID: "seed-1",
				ClientName: "Maria Visitante", PropertyName: "Chácara Vista Verde",
				Amount: 600, Status: domain.PaymentStatusPaid, DueDate: "2024-11-15",
				PaymentDate: ptr("2024-10-02"), Method: "pix",
			},
			{
				ID: domain.PaymentIDFor("seed-2"), ReservationID: "seed-2",
				ClientName: "Pedro Lima", PropertyName: "Recanto das Águas",
				Amount: 900, Status: domain.PaymentStatusPending, DueDate: "2024-12-20",
			},
			{
				ID: domain.PaymentIDFor("seed-3"), ReservationID: "seed-3",
				ClientName: "Ana Costa", PropertyName: "Chácara Vista Verde",
				Amount: 900, Status: domain.PaymentStatusOverdue, DueDate: "2024-10-05",
			},
		},
	}
}
