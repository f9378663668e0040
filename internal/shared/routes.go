package shared

// Endpoint paths served by the storefront backend.
const (
	PathVerify         = "/api/userprofiler/header-data"
	PathLogin          = "/api/authservice/authentication"
	PathRegister       = "/api/authservice/registration"
	PathChangeQuantity = "/api/cartservice/change-quantity"
	PathOrderData      = "/api/cartservice/order-data"
	PathCreateOrder    = "/api/orderservice/create-order"
	PathOrders         = "/api/orderservice/orders"
	PathProducts       = "/api/catalogservice/products"
	PathAddProduct     = "/api/catalogservice/add-product"
	PathImageUploadURL = "/api/catalogservice/image-upload-url"
	PathBalance        = "/api/bankservice/balance"
	PathTopUp          = "/api/bankservice/top-up"
	PathHealth         = "/health"
	PathMetrics        = "/metrics"
)
