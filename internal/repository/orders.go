package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dukerupert/volund/internal/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")

	// ErrAlreadyFulfilled is returned by MarkFulfilled when the order's
	// fulfilled flag was already set. Callers use it to make webhook
	// redelivery a no-op.
	ErrAlreadyFulfilled = errors.New("order already fulfilled")
)

// OrderRepository defines the interface for order persistence.
type OrderRepository interface {
	// Insert stores a new order. Assigns an ID and creation time when unset.
	Insert(ctx context.Context, order *domain.Order) error

	// FindByID returns the order with the given ID.
	FindByID(ctx context.Context, id string) (*domain.Order, error)

	// SetPaymentSession records the checkout session ID on an order.
	SetPaymentSession(ctx context.Context, id, sessionID string) error

	// MarkFulfilled atomically flips the fulfilled flag from false to true
	// and returns the updated order. Returns ErrAlreadyFulfilled when the
	// flag was already set, so concurrent callers get at most one success.
	MarkFulfilled(ctx context.Context, id string) (*domain.Order, error)

	// MarkUnfulfilled rolls the fulfilled flag back to false.
	// Used when provider submission fails after a successful claim.
	MarkUnfulfilled(ctx context.Context, id string) error

	// DeleteUnfulfilledBefore removes unfulfilled orders created before
	// the cutoff and returns the number deleted.
	DeleteUnfulfilledBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type mongoOrderRepository struct {
	collection *mongo.Collection
}

// NewMongoOrderRepository creates an order repository backed by the given database.
func NewMongoOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{
		collection: db.Collection("orders"),
	}
}

// Monetary amounts are stored as decimal strings so that documents stay
// readable and no float rounding leaks into totals.

type orderItemDoc struct {
	ProductID string `bson:"product_id"`
	Title     string `bson:"title"`
	UnitPrice string `bson:"unit_price"`
	Quantity  int    `bson:"quantity"`
	ImageURL  string `bson:"image_url,omitempty"`
	Color     string `bson:"color,omitempty"`
	Size      string `bson:"size,omitempty"`
	VariantID int64  `bson:"variant_id"`
}

type priceBreakdownDoc struct {
	Subtotal string `bson:"subtotal"`
	Shipping string `bson:"shipping"`
	Tax      string `bson:"tax"`
	VAT      string `bson:"vat"`
	Total    string `bson:"total"`
}

type customerDoc struct {
	FirstName string             `bson:"first_name"`
	LastName  string             `bson:"last_name"`
	Email     string             `bson:"email"`
	Address1  string             `bson:"address_1"`
	Address2  string             `bson:"address_2,omitempty"`
	City      string             `bson:"city"`
	State     string             `bson:"state,omitempty"`
	Zip       string             `bson:"zip"`
	Country   string             `bson:"country"`
	Prices    *priceBreakdownDoc `bson:"prices,omitempty"`
}

type orderDoc struct {
	ID               string         `bson:"_id"`
	Items            []orderItemDoc `bson:"items"`
	Customer         customerDoc    `bson:"customer"`
	Fulfilled        bool           `bson:"fulfilled"`
	PaymentSessionID string         `bson:"payment_session_id,omitempty"`
	CreatedAt        time.Time      `bson:"created_at"`
}

func (m *mongoOrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}

	doc := toOrderDoc(order)
	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (m *mongoOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var doc orderDoc

	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return fromOrderDoc(&doc)
}

func (m *mongoOrderRepository) SetPaymentSession(ctx context.Context, id, sessionID string) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"payment_session_id": sessionID}}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set payment session: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (m *mongoOrderRepository) MarkFulfilled(ctx context.Context, id string) (*domain.Order, error) {
	filter := bson.M{"_id": id, "fulfilled": false}
	update := bson.M{"$set": bson.M{"fulfilled": true}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc orderDoc
	err := m.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return fromOrderDoc(&doc)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to mark order fulfilled: %w", err)
	}

	// No match: either the order is gone or someone else won the claim.
	count, countErr := m.collection.CountDocuments(ctx, bson.M{"_id": id})
	if countErr != nil {
		return nil, fmt.Errorf("failed to mark order fulfilled: %w", countErr)
	}
	if count == 0 {
		return nil, ErrOrderNotFound
	}
	return nil, ErrAlreadyFulfilled
}

func (m *mongoOrderRepository) MarkUnfulfilled(ctx context.Context, id string) error {
	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"fulfilled": false}}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark order unfulfilled: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (m *mongoOrderRepository) DeleteUnfulfilledBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	filter := bson.M{
		"fulfilled":  false,
		"created_at": bson.M{"$lt": cutoff},
	}

	result, err := m.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete unfulfilled orders: %w", err)
	}
	return result.DeletedCount, nil
}

// CreateIndexes creates the indexes the sweeper and webhook lookups rely on.
func (m *mongoOrderRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "fulfilled", Value: 1}, {Key: "created_at", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "payment_session_id", Value: 1}},
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return nil
}

func toOrderDoc(order *domain.Order) *orderDoc {
	doc := &orderDoc{
		ID:               order.ID,
		Fulfilled:        order.Fulfilled,
		PaymentSessionID: order.PaymentSessionID,
		CreatedAt:        order.CreatedAt,
		Customer: customerDoc{
			FirstName: order.Customer.FirstName,
			LastName:  order.Customer.LastName,
			Email:     order.Customer.Email,
			Address1:  order.Customer.Address1,
			Address2:  order.Customer.Address2,
			City:      order.Customer.City,
			State:     order.Customer.State,
			Zip:       order.Customer.Zip,
			Country:   order.Customer.Country,
		},
	}

	if prices := order.Customer.Prices; prices != nil {
		doc.Customer.Prices = &priceBreakdownDoc{
			Subtotal: prices.Subtotal.String(),
			Shipping: prices.Shipping.String(),
			Tax:      prices.Tax.String(),
			VAT:      prices.VAT.String(),
			Total:    prices.Total.String(),
		}
	}

	doc.Items = make([]orderItemDoc, 0, len(order.Items))
	for _, item := range order.Items {
		doc.Items = append(doc.Items, orderItemDoc{
			ProductID: item.ProductID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice.String(),
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
			Color:     item.Color,
			Size:      item.Size,
			VariantID: item.VariantID,
		})
	}

	return doc
}

func fromOrderDoc(doc *orderDoc) (*domain.Order, error) {
	order := &domain.Order{
		ID:               doc.ID,
		Fulfilled:        doc.Fulfilled,
		PaymentSessionID: doc.PaymentSessionID,
		CreatedAt:        doc.CreatedAt,
		Customer: domain.CustomerInfo{
			FirstName: doc.Customer.FirstName,
			LastName:  doc.Customer.LastName,
			Email:     doc.Customer.Email,
			Address1:  doc.Customer.Address1,
			Address2:  doc.Customer.Address2,
			City:      doc.Customer.City,
			State:     doc.Customer.State,
			Zip:       doc.Customer.Zip,
			Country:   doc.Customer.Country,
		},
	}

	if doc.Customer.Prices != nil {
		prices, err := fromPriceDoc(doc.Customer.Prices)
		if err != nil {
			return nil, err
		}
		order.Customer.Prices = prices
	}

	order.Items = make([]domain.LineItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		unitPrice, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("corrupt unit price %q on order %s: %w", item.UnitPrice, doc.ID, err)
		}
		order.Items = append(order.Items, domain.LineItem{
			ProductID: item.ProductID,
			Title:     item.Title,
			UnitPrice: unitPrice,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
			Color:     item.Color,
			Size:      item.Size,
			VariantID: item.VariantID,
		})
	}

	return order, nil
}

func fromPriceDoc(doc *priceBreakdownDoc) (*domain.PriceBreakdown, error) {
	parse := func(field, value string) (decimal.Decimal, error) {
		if value == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("corrupt %s amount %q: %w", field, value, err)
		}
		return d, nil
	}

	var prices domain.PriceBreakdown
	var err error
	if prices.Subtotal, err = parse("subtotal", doc.Subtotal); err != nil {
		return nil, err
	}
	if prices.Shipping, err = parse("shipping", doc.Shipping); err != nil {
		return nil, err
	}
	if prices.Tax, err = parse("tax", doc.Tax); err != nil {
		return nil, err
	}
	if prices.VAT, err = parse("vat", doc.VAT); err != nil {
		return nil, err
	}
	if prices.Total, err = parse("total", doc.Total); err != nil {
		return nil, err
	}
	return &prices, nil
}
