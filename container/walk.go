package container

// WalkFunc is called for each object during traversal.
// path is the full path to the object.
// obj is either *Group or *Dataset.
// err is any error encountered opening the object.
// Return nil to continue walking, or an error to stop.
type WalkFunc func(path string, obj any, err error) error

// Walk visits every group of the file in name order, each followed by its
// datasets in name order.
//
// Example:
//
//	container.Walk(f, func(path string, obj any, err error) error {
//	    if err != nil {
//	        return err
//	    }
//	    if ds, ok := obj.(*container.Dataset); ok {
//	        fmt.Println(path, ds.Shape())
//	    }
//	    return nil
//	})
func Walk(f *File, fn WalkFunc) error {
	if f.closed {
		return ErrClosed
	}
	for _, name := range f.Groups() {
		g, err := f.Group(name)
		if err != nil {
			if err := fn("/"+name, nil, err); err != nil {
				return err
			}
			continue
		}
		if err := fn(g.Path(), g, nil); err != nil {
			return err
		}
		for _, dname := range g.Datasets() {
			var obj any
			ds, err := g.Dataset(dname)
			if err == nil {
				obj = ds
			}
			if err := fn(g.Path()+"/"+dname, obj, err); err != nil {
				return err
			}
		}
	}
	return nil
}
