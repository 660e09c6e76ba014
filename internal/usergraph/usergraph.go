// Package usergraph defines the User/Company GraphQL schema and binds its
// fields to a store.Store.
package usergraph

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hanpama/usergraph/internal/introspection"
	"github.com/hanpama/usergraph/internal/schema"
	"github.com/hanpama/usergraph/internal/store"
)

// ErrUnknownCompany is returned by addUser and editUser when companyId names
// no company.
var ErrUnknownCompany = errors.New("unknown company")

type resolvers struct {
	store store.Store
}

// NewSchema builds the schema with introspection enabled.
func NewSchema(s store.Store) (*schema.Schema, error) {
	r := schema.NewRegistry()
	if err := Register(r, s); err != nil {
		return nil, err
	}
	if err := introspection.Register(r); err != nil {
		return nil, err
	}
	return r.Build()
}

// Register declares User, Company, Query and Mutation on r. User and Company
// reference each other, so both names are declared before either field list
// is attached.
func Register(r *schema.Registry, s store.Store) error {
	res := &resolvers{store: s}

	declarations := []struct {
		name, desc string
	}{
		{"User", "A person working at a company."},
		{"Company", "A company employing users."},
		{"Query", ""},
		{"Mutation", ""},
	}
	for _, d := range declarations {
		if _, err := r.Declare(d.name, schema.TypeKindObject, d.desc); err != nil {
			return err
		}
	}

	attachments := map[string]schema.FieldsThunk{
		"User":     res.userFields,
		"Company":  res.companyFields,
		"Query":    res.queryFields,
		"Mutation": res.mutationFields,
	}
	for _, d := range declarations {
		if err := r.Attach(d.name, attachments[d.name]); err != nil {
			return err
		}
	}
	r.SetQuery("Query").SetMutation("Mutation")
	return nil
}

func (res *resolvers) userFields() []*schema.Field {
	return []*schema.Field{
		schema.NewField("id", schema.NonNullType(schema.String())),
		schema.NewField("firstName", schema.String()),
		schema.NewField("age", schema.Int()),
		schema.NewField("company", schema.NamedType("Company")).Resolve(res.userCompany),
	}
}

func (res *resolvers) companyFields() []*schema.Field {
	return []*schema.Field{
		schema.NewField("id", schema.NonNullType(schema.String())),
		schema.NewField("name", schema.String()),
		schema.NewField("description", schema.String()),
		schema.NewField("users", schema.ListType(schema.NamedType("User"))).Resolve(res.companyUsers),
	}
}

func (res *resolvers) queryFields() []*schema.Field {
	return []*schema.Field{
		schema.NewField("user", schema.NamedType("User")).
			AddArgument("id", schema.NonNullType(schema.String())).
			Resolve(res.find(store.Users)),
		schema.NewField("company", schema.NamedType("Company")).
			AddArgument("id", schema.NonNullType(schema.String())).
			Resolve(res.find(store.Companies)),
		schema.NewField("users", schema.NonNullType(schema.ListType(schema.NonNullType(schema.NamedType("User"))))).
			Resolve(res.list(store.Users)),
		schema.NewField("companies", schema.NonNullType(schema.ListType(schema.NonNullType(schema.NamedType("Company"))))).
			Resolve(res.list(store.Companies)),
	}
}

func (res *resolvers) mutationFields() []*schema.Field {
	return []*schema.Field{
		schema.NewField("addUser", schema.NamedType("User")).
			AddArgument("firstName", schema.NonNullType(schema.String())).
			AddArgument("age", schema.NonNullType(schema.Int())).
			AddArgument("companyId", schema.String()).
			Describe("Creates a user.").
			Resolve(res.addUser),
		schema.NewField("editUser", schema.NamedType("User")).
			AddArgument("id", schema.NonNullType(schema.String())).
			AddArgument("firstName", schema.String()).
			AddArgument("age", schema.Int()).
			AddArgument("companyId", schema.String()).
			Describe("Updates the given fields of a user.").
			Resolve(res.editUser),
		schema.NewField("deleteUser", schema.NamedType("User")).
			AddArgument("id", schema.NonNullType(schema.String())).
			Describe("Deletes a user. Only the id of the result is set.").
			Resolve(res.deleteUser),
	}
}

// find resolves a record by the id argument; a missing record reads as null.
func (res *resolvers) find(collection string) schema.ResolverFunc {
	return func(ctx context.Context, p schema.ResolveParams) (any, error) {
		id, _ := p.Args["id"].(string)
		return res.lookup(ctx, collection, id)
	}
}

func (res *resolvers) lookup(ctx context.Context, collection, id string) (any, error) {
	rec, err := res.store.Find(ctx, collection, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (res *resolvers) list(collection string) schema.ResolverFunc {
	return func(ctx context.Context, p schema.ResolveParams) (any, error) {
		return res.store.List(ctx, collection, nil)
	}
}

func (res *resolvers) userCompany(ctx context.Context, p schema.ResolveParams) (any, error) {
	id, _ := parent(p)["companyId"].(string)
	if id == "" {
		return nil, nil
	}
	return res.lookup(ctx, store.Companies, id)
}

func (res *resolvers) companyUsers(ctx context.Context, p schema.ResolveParams) (any, error) {
	return res.store.List(ctx, store.Users, store.Filter{"companyId": parent(p).ID()})
}

func (res *resolvers) addUser(ctx context.Context, p schema.ResolveParams) (any, error) {
	rec := store.Record{
		"firstName": p.Args["firstName"],
		"age":       p.Args["age"],
	}
	if id, ok := p.Args["companyId"].(string); ok {
		if err := res.checkCompany(ctx, id); err != nil {
			return nil, err
		}
		rec["companyId"] = id
	}
	return res.store.Create(ctx, store.Users, rec)
}

func (res *resolvers) editUser(ctx context.Context, p schema.ResolveParams) (any, error) {
	id, _ := p.Args["id"].(string)
	patch := store.Record{}
	for _, name := range []string{"firstName", "age", "companyId"} {
		if v, ok := p.Args[name]; ok && v != nil {
			patch[name] = v
		}
	}
	if cid, ok := patch["companyId"].(string); ok {
		if err := res.checkCompany(ctx, cid); err != nil {
			return nil, err
		}
	}
	rec, err := res.store.Update(ctx, store.Users, id, patch)
	if err != nil {
		return nil, errors.Wrapf(err, "edit user %q", id)
	}
	return rec, nil
}

// deleteUser yields {id} so that the selection on the deleted user always
// has a value to read.
func (res *resolvers) deleteUser(ctx context.Context, p schema.ResolveParams) (any, error) {
	id, _ := p.Args["id"].(string)
	deleted, err := res.store.Delete(ctx, store.Users, id)
	if err != nil {
		return nil, errors.Wrapf(err, "delete user %q", id)
	}
	return store.Record{"id": deleted}, nil
}

func (res *resolvers) checkCompany(ctx context.Context, id string) error {
	_, err := res.store.Find(ctx, store.Companies, id)
	if errors.Is(err, store.ErrNotFound) {
		return errors.Wrapf(ErrUnknownCompany, "%q", id)
	}
	return err
}

func parent(p schema.ResolveParams) store.Record {
	switch v := p.Source.(type) {
	case store.Record:
		return v
	case map[string]any:
		return v
	}
	return nil
}
