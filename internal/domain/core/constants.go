package core

const CollectionEmployees = "employees"
