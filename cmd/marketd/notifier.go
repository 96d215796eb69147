package main

import (
	"log/slog"

	cartdomain "github.com/harvestmkt/marketcore/internal/cart/domain"
)

// slogNotifier stands in for the original's toast panel: cart changes at
// debug, write failures and order confirmations at user-visible levels.
type slogNotifier struct {
	log *slog.Logger
}

func (n slogNotifier) CartChanged(c cartdomain.Cart) {
	n.log.Debug("cart changed",
		slog.Uint64("item_count", c.ItemCount()),
		slog.String("total", c.Total().StringFixed(2)))
}

func (n slogNotifier) WriteFailed(op string, err error) {
	n.log.Error("cart write failed", slog.String("op", op), slog.Any("err", err))
}

func (n slogNotifier) OrderPlaced(orderIDs []string) {
	n.log.Info("order confirmed", slog.Any("order_ids", orderIDs))
}
