package object

import "pocket/internal/value"

// Instance is a script-class or foreign-class instance (spec §3.3): a
// class pointer plus a dynamic attribute Map, and for foreign classes an
// opaque native payload allocated by the class's NewFn.
type Instance struct {
	Header
	Cls      *Class
	Attribs  *Map
	Native   interface{}
}

func NewInstance(gc *GC, cls *Class) *Instance {
	inst := &Instance{Cls: cls, Attribs: NewMap(gc)}
	inst.kind = value.ObjInstance
	gc.link(inst, 64)
	return inst
}

func (i *Instance) TruthyObj() bool { return true }

func (i *Instance) markChildren(gc *GC) {
	gc.MarkObj(i.Cls)
	gc.MarkObj(i.Attribs)
}

// free runs the foreign class's DeleteFn before the Instance itself is
// collected (spec §4.3 Sweep: "runs foreign delete_fn for Instances").
func (i *Instance) free() {
	if i.Cls != nil && i.Cls.DeleteFn != nil && i.Native != nil {
		i.Cls.DeleteFn(i.Native)
	}
}


