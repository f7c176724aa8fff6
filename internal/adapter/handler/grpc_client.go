package handler

import (
	"context"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"

	"github.com/rl1809/product-catalog/internal/core/domain"
)

// GRPCClient calls the catalog gRPC service using the JSON codec.
type GRPCClient struct {
	conn grpc.ClientConnInterface
}

func NewGRPCClient(conn grpc.ClientConnInterface) *GRPCClient {
	return &GRPCClient{conn: conn}
}

func (c *GRPCClient) invoke(ctx context.Context, method string, req, resp any) error {
	return c.conn.Invoke(ctx, "/"+CatalogServiceName+"/"+method, req, resp, grpc.CallContentSubtype(CodecName))
}

func (c *GRPCClient) Create(ctx context.Context, in domain.ProductInput) (*domain.Product, error) {
	var reply ProductReply
	if err := c.invoke(ctx, "Create", &CreateRequest{Product: in}, &reply); err != nil {
		return nil, err
	}
	return reply.Product, nil
}

// Get returns nil without error when the product does not exist.
func (c *GRPCClient) Get(ctx context.Context, id string) (*domain.Product, error) {
	var reply ProductReply
	if err := c.invoke(ctx, "Get", &IDRequest{ID: id}, &reply); err != nil {
		return nil, err
	}
	return reply.Product, nil
}

func (c *GRPCClient) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	var reply ProductReply
	if err := c.invoke(ctx, "GetByName", &NameRequest{Name: name}, &reply); err != nil {
		return nil, err
	}
	return reply.Product, nil
}

func (c *GRPCClient) Update(ctx context.Context, id string, in domain.ProductInput) (*domain.Product, error) {
	var reply ProductReply
	if err := c.invoke(ctx, "Update", &UpdateRequest{ID: id, Product: in}, &reply); err != nil {
		return nil, err
	}
	return reply.Product, nil
}

func (c *GRPCClient) Delete(ctx context.Context, id string) error {
	return c.invoke(ctx, "Delete", &IDRequest{ID: id}, &Empty{})
}

func (c *GRPCClient) UpdateStockQuantity(ctx context.Context, id string, quantity int) (*domain.Product, error) {
	var reply ProductReply
	if err := c.invoke(ctx, "UpdateStockQuantity", &StockRequest{ID: id, Quantity: quantity}, &reply); err != nil {
		return nil, err
	}
	return reply.Product, nil
}

func (c *GRPCClient) ListAll(ctx context.Context) ([]domain.Product, error) {
	return c.list(ctx, "ListAll", &ListRequest{})
}

func (c *GRPCClient) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return c.list(ctx, "ListByCategory", &ListRequest{Category: category})
}

func (c *GRPCClient) ListByPriceRange(ctx context.Context, min, max decimal.Decimal) ([]domain.Product, error) {
	return c.list(ctx, "ListByPriceRange", &ListRequest{MinPrice: min, MaxPrice: max})
}

func (c *GRPCClient) ListWithStockBelow(ctx context.Context, threshold int) ([]domain.Product, error) {
	return c.list(ctx, "ListWithStockBelow", &ListRequest{Threshold: threshold})
}

func (c *GRPCClient) SearchByName(ctx context.Context, text string) ([]domain.Product, error) {
	return c.list(ctx, "SearchByName", &ListRequest{Text: text})
}

func (c *GRPCClient) ListByCategoryAndPriceRange(ctx context.Context, category string, min, max decimal.Decimal) ([]domain.Product, error) {
	return c.list(ctx, "ListByCategoryAndPriceRange", &ListRequest{Category: category, MinPrice: min, MaxPrice: max})
}

func (c *GRPCClient) list(ctx context.Context, method string, req *ListRequest) ([]domain.Product, error) {
	var reply ListReply
	if err := c.invoke(ctx, method, req, &reply); err != nil {
		return nil, err
	}
	return reply.Products, nil
}
