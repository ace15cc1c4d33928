// Package loadable turns an atom whose reads may be pending or fail into an
// atom that always reads successfully and reports the state instead.
//
// A loadable atom never returns ErrPending: while its source is computing
// it reads as Loading, and a failed source reads as Error with the error
// attached. It depends on the source, so it is notified when the source
// settles.
//
// Basic Usage:
//
//	user := atom.Async(func(ctx context.Context, get atom.Getter) (*User, error) {
//	    return db.Users.Find(ctx, id)
//	})
//	userState := loadable.Of(user)
//
//	l, _ := atom.Get(store, userState)
//	text, _ := loadable.Match(l,
//	    loadable.OnLoading[*User](func() string { return "Loading..." }),
//	    loadable.OnError[*User](func(err error) string { return err.Error() }),
//	    loadable.OnReady(func(u *User) string { return u.Name }),
//	)
package loadable
