package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/rl1809/product-catalog/internal/core/domain"
)

const defaultNamespace = "catalog"

// insertProductScript claims the name key and writes the document in one step.
var insertProductScript = redis.NewScript(`
if redis.call('SETNX', KEYS[2], ARGV[1]) == 0 then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2])
redis.call('SADD', KEYS[3], ARGV[1])
return 1
`)

// saveProductScript moves the name claim when the name changes.
var saveProductScript = redis.NewScript(`
local owner = redis.call('GET', KEYS[2])
if owner and owner ~= ARGV[1] then
	return 0
end

local current = redis.call('GET', KEYS[1])
if current then
	local previous = ARGV[3] .. cjson.decode(current)['name']
	if previous ~= KEYS[2] then
		redis.call('DEL', previous)
	end
end

redis.call('SET', KEYS[2], ARGV[1])
redis.call('SET', KEYS[1], ARGV[2])
redis.call('SADD', KEYS[3], ARGV[1])
return 1
`)

var deleteProductScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if not current then
	return 0
end

redis.call('DEL', ARGV[2] .. cjson.decode(current)['name'])
redis.call('DEL', KEYS[1])
redis.call('SREM', KEYS[2], ARGV[1])
return 1
`)

// RedisAdapter stores products as JSON documents. Name uniqueness is held by a
// per-name key claimed inside Lua scripts, so it is atomic on the server.
type RedisAdapter struct {
	client    *redis.Client
	namespace string
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client, namespace: defaultNamespace}
}

// WithNamespace returns a copy of the adapter whose keys live under ns.
func (r *RedisAdapter) WithNamespace(ns string) *RedisAdapter {
	return &RedisAdapter{client: r.client, namespace: ns}
}

func (r *RedisAdapter) productKey(id string) string {
	return fmt.Sprintf("%s:product:%s", r.namespace, id)
}

func (r *RedisAdapter) namePrefix() string {
	return r.namespace + ":product-name:"
}

func (r *RedisAdapter) nameKey(name string) string {
	return r.namePrefix() + name
}

func (r *RedisAdapter) idsKey() string {
	return r.namespace + ":products"
}

func (r *RedisAdapter) Insert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}

	doc, err := json.Marshal(product)
	if err != nil {
		return nil, domain.NewStorageError("insert", err)
	}

	ok, err := insertProductScript.Run(ctx, r.client,
		[]string{r.productKey(product.ID), r.nameKey(product.Name), r.idsKey()},
		product.ID, doc,
	).Int()
	if err != nil {
		return nil, domain.NewStorageError("insert", err)
	}
	if ok == 0 {
		return nil, domain.ErrDuplicateName
	}

	return &product, nil
}

func (r *RedisAdapter) Save(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" {
		return r.Insert(ctx, product)
	}

	doc, err := json.Marshal(product)
	if err != nil {
		return nil, domain.NewStorageError("save", err)
	}

	ok, err := saveProductScript.Run(ctx, r.client,
		[]string{r.productKey(product.ID), r.nameKey(product.Name), r.idsKey()},
		product.ID, doc, r.namePrefix(),
	).Int()
	if err != nil {
		return nil, domain.NewStorageError("save", err)
	}
	if ok == 0 {
		return nil, domain.ErrDuplicateName
	}

	return &product, nil
}

func (r *RedisAdapter) DeleteByID(ctx context.Context, id string) error {
	ok, err := deleteProductScript.Run(ctx, r.client,
		[]string{r.productKey(id), r.idsKey()},
		id, r.namePrefix(),
	).Int()
	if err != nil {
		return domain.NewStorageError("delete", err)
	}
	if ok == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *RedisAdapter) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	raw, err := r.client.Get(ctx, r.productKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStorageError("find by id", err)
	}

	var product domain.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		return nil, domain.NewStorageError("find by id", fmt.Errorf("decode %s: %w", id, err))
	}
	return &product, nil
}

func (r *RedisAdapter) ExistsByID(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, r.productKey(id)).Result()
	if err != nil {
		return false, domain.NewStorageError("exists by id", err)
	}
	return n > 0, nil
}

func (r *RedisAdapter) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	id, err := r.client.Get(ctx, r.nameKey(name)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.NewStorageError("find by name", err)
	}
	return r.FindByID(ctx, id)
}

func (r *RedisAdapter) ExistsByName(ctx context.Context, name string) (bool, error) {
	n, err := r.client.Exists(ctx, r.nameKey(name)).Result()
	if err != nil {
		return false, domain.NewStorageError("exists by name", err)
	}
	return n > 0, nil
}

func (r *RedisAdapter) FindAll(ctx context.Context) ([]domain.Product, error) {
	return r.query(ctx, "find all", func(domain.Product) bool { return true })
}

func (r *RedisAdapter) FindByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return r.query(ctx, "find by category", categoryIs(category))
}

func (r *RedisAdapter) FindByPriceLessThan(ctx context.Context, price decimal.Decimal) ([]domain.Product, error) {
	return r.query(ctx, "find by price less than", priceBelow(price))
}

func (r *RedisAdapter) FindByPriceGreaterThan(ctx context.Context, price decimal.Decimal) ([]domain.Product, error) {
	return r.query(ctx, "find by price greater than", priceAbove(price))
}

func (r *RedisAdapter) FindByPriceBetween(ctx context.Context, min, max decimal.Decimal) ([]domain.Product, error) {
	return r.query(ctx, "find by price between", priceBetween(min, max))
}

func (r *RedisAdapter) FindByStockQuantityLessThan(ctx context.Context, quantity int) ([]domain.Product, error) {
	return r.query(ctx, "find by stock less than", stockBelow(quantity))
}

func (r *RedisAdapter) FindByNameContaining(ctx context.Context, text string) ([]domain.Product, error) {
	return r.query(ctx, "find by name containing", nameContains(text))
}

func (r *RedisAdapter) FindByCategoryAndPriceBetween(ctx context.Context, category string, min, max decimal.Decimal) ([]domain.Product, error) {
	return r.query(ctx, "find by category and price between", both(categoryIs(category), priceBetween(min, max)))
}

// query loads every document and filters in process.
func (r *RedisAdapter) query(ctx context.Context, op string, match predicate) ([]domain.Product, error) {
	ids, err := r.client.SMembers(ctx, r.idsKey()).Result()
	if err != nil {
		return nil, domain.NewStorageError(op, err)
	}
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.productKey(id)
	}

	docs, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, domain.NewStorageError(op, err)
	}

	all := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		raw, ok := doc.(string)
		if !ok {
			// deleted between SMEMBERS and MGET
			continue
		}
		var product domain.Product
		if err := json.Unmarshal([]byte(raw), &product); err != nil {
			return nil, domain.NewStorageError(op, err)
		}
		all = append(all, product)
	}

	out := filterProducts(all, match)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
