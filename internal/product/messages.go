package product

// Field names at the locale-facing boundary.
const (
	FieldNombre = "nombre"
	FieldPrecio = "precio"
)

// Validation messages.
const (
	MsgNombreRequired = "El nombre del producto es obligatorio"
	MsgNombreString   = "El nombre del producto debe ser un texto"
	MsgNombreMax      = "El nombre del producto no puede superar los 255 caracteres"
	MsgPrecioRequired = "El precio es obligatorio"
	MsgPrecioNumeric  = "El precio debe ser un número"
	MsgPrecioMin      = "El precio debe ser mayor que cero"
)

// Outcome messages surfaced as flash.
const (
	MsgListFailed   = "No se pudieron obtener los productos."
	MsgCreated      = "Producto creado correctamente"
	MsgCreateFailed = "Error al crear el producto"
	MsgUpdated      = "Producto actualizado correctamente"
	MsgUpdateFailed = "Error al actualizar el producto. Código: %d"
	MsgDeleted      = "Producto eliminado correctamente"
	MsgDeleteFailed = "Error al eliminar el producto"
)
