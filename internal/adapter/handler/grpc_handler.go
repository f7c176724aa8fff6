package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/product-catalog/internal/core/domain"
	"github.com/rl1809/product-catalog/internal/core/service"
)

const CatalogServiceName = "catalog.v1.CatalogService"

type IDRequest struct {
	ID string `json:"id"`
}

type NameRequest struct {
	Name string `json:"name"`
}

type CreateRequest struct {
	Product domain.ProductInput `json:"product"`
}

type UpdateRequest struct {
	ID      string              `json:"id"`
	Product domain.ProductInput `json:"product"`
}

type StockRequest struct {
	ID       string `json:"id"`
	Quantity int    `json:"quantity"`
}

// ListRequest carries the arguments of every list query; each method reads
// only the fields it needs.
type ListRequest struct {
	Category  string          `json:"category,omitempty"`
	MinPrice  decimal.Decimal `json:"minPrice"`
	MaxPrice  decimal.Decimal `json:"maxPrice"`
	Threshold int             `json:"threshold,omitempty"`
	Text      string          `json:"text,omitempty"`
}

// ProductReply leaves Product nil when a lookup found nothing.
type ProductReply struct {
	Product *domain.Product `json:"product,omitempty"`
}

type ListReply struct {
	Products []domain.Product `json:"products"`
}

type Empty struct{}

// CatalogServer is the gRPC surface of the catalog service.
type CatalogServer interface {
	Create(ctx context.Context, req *CreateRequest) (*ProductReply, error)
	Get(ctx context.Context, req *IDRequest) (*ProductReply, error)
	GetByName(ctx context.Context, req *NameRequest) (*ProductReply, error)
	Update(ctx context.Context, req *UpdateRequest) (*ProductReply, error)
	Delete(ctx context.Context, req *IDRequest) (*Empty, error)
	UpdateStockQuantity(ctx context.Context, req *StockRequest) (*ProductReply, error)
	ListAll(ctx context.Context, req *ListRequest) (*ListReply, error)
	ListByCategory(ctx context.Context, req *ListRequest) (*ListReply, error)
	ListByPriceRange(ctx context.Context, req *ListRequest) (*ListReply, error)
	ListWithStockBelow(ctx context.Context, req *ListRequest) (*ListReply, error)
	SearchByName(ctx context.Context, req *ListRequest) (*ListReply, error)
	ListByCategoryAndPriceRange(ctx context.Context, req *ListRequest) (*ListReply, error)
}

type GRPCHandler struct {
	catalog  *service.CatalogService
	validate *validator.Validate
}

func NewGRPCHandler(catalog *service.CatalogService) *GRPCHandler {
	return &GRPCHandler{catalog: catalog, validate: newValidator()}
}

// RegisterCatalogServer attaches srv to s under CatalogServiceName.
func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&catalogServiceDesc, srv)
}

func (h *GRPCHandler) Create(ctx context.Context, req *CreateRequest) (*ProductReply, error) {
	if err := h.validateInput(req.Product); err != nil {
		return nil, err
	}
	p, err := h.catalog.Create(ctx, req.Product)
	return productReply(p, err)
}

func (h *GRPCHandler) Get(ctx context.Context, req *IDRequest) (*ProductReply, error) {
	p, err := h.catalog.GetByID(ctx, req.ID)
	return productReply(p, err)
}

func (h *GRPCHandler) GetByName(ctx context.Context, req *NameRequest) (*ProductReply, error) {
	p, err := h.catalog.GetByName(ctx, req.Name)
	return productReply(p, err)
}

func (h *GRPCHandler) Update(ctx context.Context, req *UpdateRequest) (*ProductReply, error) {
	if err := h.validateInput(req.Product); err != nil {
		return nil, err
	}
	p, err := h.catalog.Update(ctx, req.ID, req.Product)
	return productReply(p, err)
}

func (h *GRPCHandler) Delete(ctx context.Context, req *IDRequest) (*Empty, error) {
	if err := h.catalog.Delete(ctx, req.ID); err != nil {
		return nil, grpcError(err)
	}
	return &Empty{}, nil
}

func (h *GRPCHandler) UpdateStockQuantity(ctx context.Context, req *StockRequest) (*ProductReply, error) {
	p, err := h.catalog.UpdateStockQuantity(ctx, req.ID, req.Quantity)
	return productReply(p, err)
}

func (h *GRPCHandler) ListAll(ctx context.Context, _ *ListRequest) (*ListReply, error) {
	return listReply(h.catalog.ListAll(ctx))
}

func (h *GRPCHandler) ListByCategory(ctx context.Context, req *ListRequest) (*ListReply, error) {
	return listReply(h.catalog.ListByCategory(ctx, req.Category))
}

func (h *GRPCHandler) ListByPriceRange(ctx context.Context, req *ListRequest) (*ListReply, error) {
	return listReply(h.catalog.ListByPriceRange(ctx, req.MinPrice, req.MaxPrice))
}

func (h *GRPCHandler) ListWithStockBelow(ctx context.Context, req *ListRequest) (*ListReply, error) {
	return listReply(h.catalog.ListWithStockBelow(ctx, req.Threshold))
}

func (h *GRPCHandler) SearchByName(ctx context.Context, req *ListRequest) (*ListReply, error) {
	return listReply(h.catalog.SearchByName(ctx, req.Text))
}

func (h *GRPCHandler) ListByCategoryAndPriceRange(ctx context.Context, req *ListRequest) (*ListReply, error) {
	return listReply(h.catalog.ListByCategoryAndPriceRange(ctx, req.Category, req.MinPrice, req.MaxPrice))
}

// validateInput applies the REST body rules and reports the first failing
// field as InvalidArgument.
func (h *GRPCHandler) validateInput(in domain.ProductInput) error {
	err := h.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return status.Error(codes.InvalidArgument, fieldMessage(verrs[0]))
	}
	return status.Error(codes.InvalidArgument, err.Error())
}

func productReply(p *domain.Product, err error) (*ProductReply, error) {
	if err != nil {
		return nil, grpcError(err)
	}
	return &ProductReply{Product: p}, nil
}

func listReply(products []domain.Product, err error) (*ListReply, error) {
	if err != nil {
		return nil, grpcError(err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return &ListReply{Products: products}, nil
}

func grpcError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, "product not found")
	case errors.Is(err, domain.ErrDuplicateName):
		return status.Error(codes.AlreadyExists, "product name already exists")
	case errors.Is(err, domain.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

var catalogServiceDesc = grpc.ServiceDesc{
	ServiceName: CatalogServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Create", CatalogServer.Create),
		unary("Get", CatalogServer.Get),
		unary("GetByName", CatalogServer.GetByName),
		unary("Update", CatalogServer.Update),
		unary("Delete", CatalogServer.Delete),
		unary("UpdateStockQuantity", CatalogServer.UpdateStockQuantity),
		unary("ListAll", CatalogServer.ListAll),
		unary("ListByCategory", CatalogServer.ListByCategory),
		unary("ListByPriceRange", CatalogServer.ListByPriceRange),
		unary("ListWithStockBelow", CatalogServer.ListWithStockBelow),
		unary("SearchByName", CatalogServer.SearchByName),
		unary("ListByCategoryAndPriceRange", CatalogServer.ListByCategoryAndPriceRange),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog/v1/catalog",
}

// unary builds the method descriptor that generated code would normally provide.
func unary[Req, Resp any](name string, call func(CatalogServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + CatalogServiceName + "/" + name

	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			req := new(Req)
			if err := dec(req); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CatalogServer), ctx, req)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(CatalogServer), ctx, req.(*Req))
			})
		},
	}
}
