package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle label of an order. Any status may follow any other.
type OrderStatus string

const (
	StatusNew       OrderStatus = "nouvelle"
	StatusPreparing OrderStatus = "en préparation"
	StatusReady     OrderStatus = "prête à emporter"
	StatusDelivered OrderStatus = "livrée"
	StatusCancelled OrderStatus = "annulée"
)

// OrderStatuses lists every valid status in display order.
var OrderStatuses = []OrderStatus{StatusNew, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// NotifiesClient is true for the statuses the customer is told about.
func (s OrderStatus) NotifiesClient() bool {
	return s == StatusReady || s == StatusDelivered
}

// InProgress covers orders accepted but not yet handed over.
func (s OrderStatus) InProgress() bool {
	return s == StatusPreparing || s == StatusReady
}

// Earned marks orders that count toward revenue.
func (s OrderStatus) Earned() bool {
	return s == StatusReady || s == StatusDelivered
}

// OrderLine is the immutable snapshot of one product taken at checkout.
type OrderLine struct {
	ProductID   string          `json:"produitId"`
	Quantity    int             `json:"quantite"`
	UnitPrice   decimal.Decimal `json:"prixUnitaire"`
	ProductName string          `json:"nomProduit"`
}

// Subtotal is UnitPrice × Quantity.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderArticle is the display snapshot of a line, with its cover photo.
type OrderArticle struct {
	ProductID string          `json:"produitId"`
	Name      string          `json:"nom"`
	Price     decimal.Decimal `json:"prix"`
	Quantity  int             `json:"quantite"`
	Photo     string          `json:"photo"`
}

// Order is a placed customer order ("commande").
type Order struct {
	ID              string          `json:"id"`
	ClientID        string          `json:"clientId"`
	ClientLastName  string          `json:"clientNom"`
	ClientFirstName string          `json:"clientPrenom"`
	ClientEmail     string          `json:"clientEmail"`
	ClientPhone     string          `json:"clientTelephone"`
	Lines           []OrderLine     `json:"produits"`
	Articles        []OrderArticle  `json:"articles,omitempty"`
	Total           decimal.Decimal `json:"total"`
	Status          OrderStatus     `json:"statut"`
	PlacedAt        time.Time       `json:"dateCommande"`
	UpdatedAt       time.Time       `json:"dateModification"`
}

func (o Order) GetID() string { return o.ID }

// Clone returns a deep copy so callers cannot reach into stored snapshots.
func (o Order) Clone() Order {
	o.Lines = append([]OrderLine(nil), o.Lines...)
	o.Articles = append([]OrderArticle(nil), o.Articles...)
	return o
}
