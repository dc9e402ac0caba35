package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/mazraa/app/models"
	"github.com/shashiranjanraj/mazraa/pkg/collection"
)

// RecentOrdersShown is how many orders the dashboard lists.
const RecentOrdersShown = 5

// Stats is the back-office overview.
type Stats struct {
	TotalProducts    int             `json:"totalProduits"`
	ActiveProducts   int             `json:"produitsActifs"`
	OutOfStock       int             `json:"produitsRupture"`
	TotalOrders      int             `json:"totalCommandes"`
	NewOrders        int             `json:"commandesNouvelles"`
	InProgressOrders int             `json:"commandesEnCours"`
	Revenue          decimal.Decimal `json:"chiffreAffaires"`
	RecentOrders     []models.Order  `json:"commandesRecentes"`
	UnreadMessages   int             `json:"messagesNonLus"`
}

type DashboardService struct {
	deps Deps
}

func (s *DashboardService) Stats(ctx context.Context) (Stats, error) {
	products, err := s.deps.Repos.Products.All(ctx)
	if err != nil {
		return Stats{}, err
	}
	orders, err := s.deps.Repos.Orders.Recent(ctx)
	if err != nil {
		return Stats{}, err
	}
	messages, err := s.deps.Repos.Messages.Filter(ctx, func(m models.ChatMessage) bool {
		return m.SenderType == models.SenderClient && !m.Read
	})
	if err != nil {
		return Stats{}, err
	}

	revenue := collection.Reduce(orders, decimal.Zero, func(acc decimal.Decimal, o models.Order) decimal.Decimal {
		if o.Status.Earned() {
			return acc.Add(o.Total)
		}
		return acc
	})

	return Stats{
		TotalProducts:    len(products),
		ActiveProducts:   collection.Count(products, func(p models.Product) bool { return p.Active }),
		OutOfStock:       collection.Count(products, func(p models.Product) bool { return p.Stock == 0 }),
		TotalOrders:      len(orders),
		NewOrders:        collection.Count(orders, func(o models.Order) bool { return o.Status == models.StatusNew }),
		InProgressOrders: collection.Count(orders, func(o models.Order) bool { return o.Status.InProgress() }),
		Revenue:          revenue,
		RecentOrders:     collection.Take(orders, RecentOrdersShown),
		UnreadMessages:   len(messages),
	}, nil
}
