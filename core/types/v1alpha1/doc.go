// Package v1alpha1 contains the network fabric resources served by yangtze:
// Fabrics and the Switches that belong to them.
package v1alpha1
