package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shopgate/internal/auth"
	"shopgate/internal/authz"
	"shopgate/internal/ratelimiter"
	"shopgate/internal/revocation"
	"shopgate/internal/store"
)

const testTokenSecret = "test-secret"

// fakeUsers is an in-memory stand-in for the users table. Reads hand out
// copies so handlers cannot mutate stored state behind the store's back.
type fakeUsers struct {
	mu      sync.Mutex
	nextID  int64
	users   map[int64]*store.User
	updates []profileUpdate
}

type profileUpdate struct {
	userID       int64
	fullName     *string
	passwordHash []byte
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[int64]*store.User{}}
}

func (f *fakeUsers) Create(_ context.Context, user *store.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == user.Email {
			return store.ErrDuplicateEmail
		}
	}

	f.nextID++
	user.ID = f.nextID
	user.IsActive = true
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) List(_ context.Context, ownerID int64) ([]store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var users []store.User
	for _, u := range f.users {
		if ownerID == 0 || u.ID == ownerID {
			users = append(users, *u)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, userID int64, fullName *string, passwordHash []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	if fullName != nil {
		u.FullName = *fullName
	}
	u.UpdatedAt = time.Now()
	f.updates = append(f.updates, profileUpdate{userID: userID, fullName: fullName, passwordHash: passwordHash})
	return nil
}

func (f *fakeUsers) Deactivate(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.IsActive = false
	return nil
}

// fakeRules holds the roles, business elements and permission matrix.
type fakeRules struct {
	mu       sync.Mutex
	nextID   int64
	roles    map[string]*store.Role
	elements map[string]*store.BusinessElement
	rules    map[int64]*store.AccessRule
}

func newFakeRules() *fakeRules {
	return &fakeRules{
		roles:    map[string]*store.Role{},
		elements: map[string]*store.BusinessElement{},
		rules:    map[int64]*store.AccessRule{},
	}
}

func (f *fakeRules) addRole(name string) *store.Role {
	f.mu.Lock()
	defer f.mu.Unlock()

	if role, ok := f.roles[name]; ok {
		return role
	}
	f.nextID++
	role := &store.Role{ID: f.nextID, Name: name}
	f.roles[name] = role
	return role
}

func (f *fakeRules) addElement(name string) *store.BusinessElement {
	f.mu.Lock()
	defer f.mu.Unlock()

	if element, ok := f.elements[name]; ok {
		return element
	}
	f.nextID++
	element := &store.BusinessElement{ID: f.nextID, Name: name}
	f.elements[name] = element
	return element
}

// setRule upserts the matrix cell for the pair, bypassing the API surface.
func (f *fakeRules) setRule(roleName, elementName string, grants authz.Rule) {
	role := f.addRole(roleName)
	element := f.addElement(elementName)

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, rule := range f.rules {
		if rule.RoleID == role.ID && rule.ElementID == element.ID {
			rule.Rule = grants
			return
		}
	}

	f.nextID++
	f.rules[f.nextID] = &store.AccessRule{
		ID:        f.nextID,
		RoleID:    role.ID,
		ElementID: element.ID,
		Role:      roleName,
		Element:   elementName,
		Rule:      grants,
	}
}

func (f *fakeRules) GetRoleByName(_ context.Context, name string) (*store.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	role, ok := f.roles[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *role
	return &clone, nil
}

func (f *fakeRules) GetRule(_ context.Context, roleName, elementName string) (*store.AccessRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, rule := range f.rules {
		if rule.Role == roleName && rule.Element == elementName {
			clone := *rule
			return &clone, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeRules) GetRuleByID(_ context.Context, id int64) (*store.AccessRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rule, ok := f.rules[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *rule
	return &clone, nil
}

func (f *fakeRules) List(_ context.Context) ([]store.AccessRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var rules []store.AccessRule
	for _, rule := range f.rules {
		rules = append(rules, *rule)
	}
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].Role != rules[j].Role {
			return rules[i].Role < rules[j].Role
		}
		return rules[i].Element < rules[j].Element
	})
	return rules, nil
}

func (f *fakeRules) Create(_ context.Context, rule *store.AccessRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.rules {
		if existing.RoleID == rule.RoleID && existing.ElementID == rule.ElementID {
			return store.ErrConflict
		}
	}

	for _, role := range f.roles {
		if role.ID == rule.RoleID {
			rule.Role = role.Name
		}
	}
	for _, element := range f.elements {
		if element.ID == rule.ElementID {
			rule.Element = element.Name
		}
	}

	f.nextID++
	rule.ID = f.nextID
	clone := *rule
	f.rules[rule.ID] = &clone
	return nil
}

func (f *fakeRules) Update(_ context.Context, rule *store.AccessRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, ok := f.rules[rule.ID]
	if !ok {
		return store.ErrNotFound
	}
	existing.Rule = rule.Rule
	return nil
}

func (f *fakeRules) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.rules[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.rules, id)
	return nil
}

type fakeProducts struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]*store.Product
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{products: map[int64]*store.Product{}}
}

func (f *fakeProducts) Create(_ context.Context, product *store.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	product.ID = f.nextID
	product.IsActive = true
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt

	clone := *product
	f.products[product.ID] = &clone
	return nil
}

func (f *fakeProducts) GetByID(_ context.Context, id int64) (*store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	product, ok := f.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *product
	return &clone, nil
}

func (f *fakeProducts) List(_ context.Context, ownerID int64) ([]store.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var products []store.Product
	for _, product := range f.products {
		if ownerID == 0 || product.OwnerID == ownerID {
			products = append(products, *product)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID > products[j].ID })
	return products, nil
}

func (f *fakeProducts) Update(_ context.Context, product *store.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, ok := f.products[product.ID]
	if !ok {
		return store.ErrNotFound
	}

	// The owner column is immutable after creation.
	owner := existing.OwnerID
	clone := *product
	clone.OwnerID = owner
	clone.UpdatedAt = time.Now()
	f.products[product.ID] = &clone
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

type fakeStores struct {
	mu     sync.Mutex
	nextID int64
	stores map[int64]*store.Store
}

func newFakeStores() *fakeStores {
	return &fakeStores{stores: map[int64]*store.Store{}}
}

func (f *fakeStores) Create(_ context.Context, s *store.Store) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.stores {
		if existing.Name == s.Name {
			return store.ErrConflict
		}
	}

	f.nextID++
	s.ID = f.nextID
	s.IsActive = true

	clone := *s
	f.stores[s.ID] = &clone
	return nil
}

func (f *fakeStores) GetByID(_ context.Context, id int64) (*store.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.stores[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (f *fakeStores) List(_ context.Context, ownerID int64) ([]store.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var stores []store.Store
	for _, s := range f.stores {
		if ownerID == 0 || s.OwnerID == ownerID {
			stores = append(stores, *s)
		}
	}
	sort.Slice(stores, func(i, j int) bool { return stores[i].ID < stores[j].ID })
	return stores, nil
}

func (f *fakeStores) Update(_ context.Context, s *store.Store) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, ok := f.stores[s.ID]
	if !ok {
		return store.ErrNotFound
	}

	owner := existing.OwnerID
	clone := *s
	clone.OwnerID = owner
	f.stores[s.ID] = &clone
	return nil
}

func (f *fakeStores) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.stores[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.stores, id)
	return nil
}

// fakeOrders mirrors the single-statement insert semantics: the total is
// priced from the product and the owner defaults to the ordering user.
type fakeOrders struct {
	mu       sync.Mutex
	nextID   int64
	orders   map[int64]*store.Order
	products *fakeProducts
}

func newFakeOrders(products *fakeProducts) *fakeOrders {
	return &fakeOrders{orders: map[int64]*store.Order{}, products: products}
}

func (f *fakeOrders) Create(ctx context.Context, order *store.Order) error {
	product, err := f.products.GetByID(ctx, order.ProductID)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if order.Status == "" {
		order.Status = store.OrderStatusPending
	}
	if order.TotalPriceCents == 0 {
		order.TotalPriceCents = product.PriceCents * int64(order.Quantity)
	}
	if order.OwnerID == 0 {
		order.OwnerID = order.UserID
	}

	f.nextID++
	order.ID = f.nextID
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt

	clone := *order
	f.orders[order.ID] = &clone
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id int64) (*store.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *order
	return &clone, nil
}

func (f *fakeOrders) List(_ context.Context, ownerID int64) ([]store.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var orders []store.Order
	for _, order := range f.orders {
		if ownerID == 0 || order.OwnerID == ownerID {
			orders = append(orders, *order)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders, nil
}

func (f *fakeOrders) Update(_ context.Context, order *store.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, ok := f.orders[order.ID]
	if !ok {
		return store.ErrNotFound
	}
	existing.Quantity = order.Quantity
	existing.TotalPriceCents = order.TotalPriceCents
	existing.Status = order.Status
	existing.UpdatedAt = time.Now()
	return nil
}

func (f *fakeOrders) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.orders[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.orders, id)
	return nil
}

type sentMail struct {
	template string
	username string
	email    string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (f *fakeMailer) Send(templateFile, username, email string, _ any) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{template: templateFile, username: username, email: email})
	return http.StatusOK, nil
}

// testHarness bundles the application with its fakes so tests can seed and
// inspect state directly.
type testHarness struct {
	app      *application
	mux      http.Handler
	users    *fakeUsers
	rules    *fakeRules
	products *fakeProducts
	stores   *fakeStores
	orders   *fakeOrders
	mailer   *fakeMailer
}

// newTestApplication wires the handlers against in-memory storage, a real
// token authenticator and a miniredis-backed revocation list. The default
// permission matrix is seeded for every role except Admin, whose requests
// must succeed without any rule rows at all.
func newTestApplication(t *testing.T) *testHarness {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	users := newFakeUsers()
	rules := newFakeRules()
	products := newFakeProducts()
	storefronts := newFakeStores()
	orders := newFakeOrders(products)
	mail := &fakeMailer{}

	app := &application{
		config: config{
			addr: ":0",
			env:  "test",
			auth: authConfig{
				token: tokenConfig{secret: testTokenSecret, tokenExp: time.Hour, iss: "shopgate-test"},
			},
			rateLimiter: ratelimiter.Config{Enabled: false},
		},
		store: store.Storage{
			Users:    users,
			Rules:    rules,
			Products: products,
			Stores:   storefronts,
			Orders:   orders,
		},
		logger:        zap.NewNop().Sugar(),
		authenticator: auth.NewJWTAuthenticator(testTokenSecret, "shopgate-test", "shopgate-test", time.Hour),
		revocations:   revocation.NewRedisStore(client),
		mailer:        mail,
	}

	for _, role := range store.DefaultRoles {
		rules.addRole(role)
	}
	for _, element := range store.DefaultElements {
		rules.addElement(element)
	}
	for role, grants := range store.DefaultMatrix {
		if role == authz.SuperRole {
			continue
		}
		for _, element := range store.DefaultElements {
			rules.setRule(role, element, grants)
		}
	}

	return &testHarness{
		app:      app,
		mux:      app.mount(),
		users:    users,
		rules:    rules,
		products: products,
		stores:   storefronts,
		orders:   orders,
		mailer:   mail,
	}
}

func (h *testHarness) createUser(t *testing.T, fullName, email, plaintext, roleName string) *store.User {
	t.Helper()

	role, err := h.rules.GetRoleByName(context.Background(), roleName)
	require.NoError(t, err)

	user := &store.User{
		FullName: fullName,
		Email:    email,
		RoleID:   role.ID,
		Role:     role.Name,
	}
	require.NoError(t, user.Password.Set(plaintext))
	require.NoError(t, h.users.Create(context.Background(), user))
	return user
}

func (h *testHarness) tokenFor(t *testing.T, user *store.User) string {
	t.Helper()

	token, err := h.app.authenticator.GenerateToken(user.ID, user.Role)
	require.NoError(t, err)
	return token
}

func (h *testHarness) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rr := httptest.NewRecorder()
	h.mux.ServeHTTP(rr, req)
	return rr
}

func decodeData[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()

	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	return envelope.Data
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	var envelope struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	return envelope.Message
}
