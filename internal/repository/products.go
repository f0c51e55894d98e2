package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dukerupert/volund/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
)

// ProductRepository defines the interface for catalog persistence.
// The catalog is derived entirely from the fulfillment provider, so writes
// happen only through wholesale replacement during a resync.
type ProductRepository interface {
	// ReplaceCatalog drops the stored catalog and inserts the given products.
	ReplaceCatalog(ctx context.Context, products []domain.Product) error

	// List returns all catalog products.
	List(ctx context.Context) ([]domain.Product, error)

	// FindByProductID returns the product with the given sync product ID.
	FindByProductID(ctx context.Context, productID int64) (*domain.Product, error)

	// FindVariant returns the variant with the given ID along with its
	// parent product.
	FindVariant(ctx context.Context, variantID string) (*domain.Product, *domain.Variant, error)

	// StockProductIDs returns the distinct stock product IDs in the catalog,
	// used to scope stock webhook registration.
	StockProductIDs(ctx context.Context) ([]int64, error)
}

type mongoProductRepository struct {
	collection *mongo.Collection
}

// NewMongoProductRepository creates a product repository backed by the given database.
func NewMongoProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProductRepository{
		collection: db.Collection("products"),
	}
}

type variantDoc struct {
	ID            string `bson:"id"`
	Name          string `bson:"name"`
	InStock       bool   `bson:"in_stock"`
	VariantID     int64  `bson:"variant_id"`
	SyncVariantID int64  `bson:"sync_variant_id"`
	Size          string `bson:"size,omitempty"`
	Color         string `bson:"color,omitempty"`
	RetailPrice   string `bson:"retail_price"`
	ImageURL      string `bson:"image_url,omitempty"`
}

type productDoc struct {
	ProductID      int64        `bson:"_id"`
	StockProductID int64        `bson:"stock_product_id"`
	Name           string       `bson:"name"`
	PriceRange     string       `bson:"price_range,omitempty"`
	ThumbnailURL   string       `bson:"thumbnail_url"`
	Variants       []variantDoc `bson:"variants"`
}

func (m *mongoProductRepository) ReplaceCatalog(ctx context.Context, products []domain.Product) error {
	if _, err := m.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear catalog: %w", err)
	}

	if len(products) == 0 {
		return nil
	}

	docs := make([]any, 0, len(products))
	for i := range products {
		docs = append(docs, toProductDoc(&products[i]))
	}

	if _, err := m.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert catalog: %w", err)
	}
	return nil
}

func (m *mongoProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	cursor, err := m.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]domain.Product, 0, len(docs))
	for i := range docs {
		product, err := fromProductDoc(&docs[i])
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	return products, nil
}

func (m *mongoProductRepository) FindByProductID(ctx context.Context, productID int64) (*domain.Product, error) {
	var doc productDoc

	err := m.collection.FindOne(ctx, bson.M{"_id": productID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return fromProductDoc(&doc)
}

func (m *mongoProductRepository) FindVariant(ctx context.Context, variantID string) (*domain.Product, *domain.Variant, error) {
	var doc productDoc

	err := m.collection.FindOne(ctx, bson.M{"variants.id": variantID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, ErrVariantNotFound
		}
		return nil, nil, fmt.Errorf("failed to find variant: %w", err)
	}

	product, err := fromProductDoc(&doc)
	if err != nil {
		return nil, nil, err
	}

	for i := range product.Variants {
		if product.Variants[i].ID == variantID {
			return product, &product.Variants[i], nil
		}
	}
	return nil, nil, ErrVariantNotFound
}

func (m *mongoProductRepository) StockProductIDs(ctx context.Context) ([]int64, error) {
	values, err := m.collection.Distinct(ctx, "stock_product_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list stock product ids: %w", err)
	}

	ids := make([]int64, 0, len(values))
	for _, v := range values {
		switch id := v.(type) {
		case int64:
			ids = append(ids, id)
		case int32:
			ids = append(ids, int64(id))
		}
	}
	return ids, nil
}

func toProductDoc(product *domain.Product) *productDoc {
	doc := &productDoc{
		ProductID:      product.ProductID,
		StockProductID: product.StockProductID,
		Name:           product.Name,
		PriceRange:     product.PriceRange,
		ThumbnailURL:   product.ThumbnailURL,
	}
	doc.Variants = make([]variantDoc, 0, len(product.Variants))
	for _, v := range product.Variants {
		doc.Variants = append(doc.Variants, variantDoc{
			ID:            v.ID,
			Name:          v.Name,
			InStock:       v.InStock,
			VariantID:     v.VariantID,
			SyncVariantID: v.SyncVariantID,
			Size:          v.Size,
			Color:         v.Color,
			RetailPrice:   v.RetailPrice.String(),
			ImageURL:      v.ImageURL,
		})
	}
	return doc
}

func fromProductDoc(doc *productDoc) (*domain.Product, error) {
	product := &domain.Product{
		ProductID:      doc.ProductID,
		StockProductID: doc.StockProductID,
		Name:           doc.Name,
		PriceRange:     doc.PriceRange,
		ThumbnailURL:   doc.ThumbnailURL,
	}
	product.Variants = make([]domain.Variant, 0, len(doc.Variants))
	for _, v := range doc.Variants {
		price, err := decimal.NewFromString(v.RetailPrice)
		if err != nil {
			return nil, fmt.Errorf("corrupt retail price %q on product %d: %w", v.RetailPrice, doc.ProductID, err)
		}
		product.Variants = append(product.Variants, domain.Variant{
			ID:            v.ID,
			Name:          v.Name,
			InStock:       v.InStock,
			VariantID:     v.VariantID,
			SyncVariantID: v.SyncVariantID,
			Size:          v.Size,
			Color:         v.Color,
			RetailPrice:   price,
			ImageURL:      v.ImageURL,
		})
	}
	return product, nil
}
